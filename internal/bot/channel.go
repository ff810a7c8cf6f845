package bot

import (
	"context"
	"sync"

	"github.com/marcelohmariano/blade/internal/domain"
)

// DefaultQueueSize bounds a Channel when no size is configured.
const DefaultQueueSize = 64

// Channel is a bounded message queue between one producer and the bot.
// Closing it acts as an end-of-stream sentinel: messages queued before Close
// are still delivered, later Adds are rejected.
type Channel struct {
	items chan domain.Message
	done  chan struct{}
	once  sync.Once
}

// NewChannel returns a channel holding at most size queued messages.
func NewChannel(size int) *Channel {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Channel{
		items: make(chan domain.Message, size),
		done:  make(chan struct{}),
	}
}

// Add queues msg, blocking while the channel is full.
func (c *Channel) Add(ctx context.Context, msg domain.Message) error {
	select {
	case <-c.done:
		return domain.ErrChannelClosed
	default:
	}

	select {
	case c.items <- msg:
		return nil
	case <-c.done:
		return domain.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next blocks until a message is available. After Close it keeps returning
// queued messages, then domain.ErrChannelClosed.
func (c *Channel) Next(ctx context.Context) (domain.Message, error) {
	select {
	case msg := <-c.items:
		return msg, nil
	default:
	}

	select {
	case msg := <-c.items:
		return msg, nil
	case <-c.done:
		select {
		case msg := <-c.items:
			return msg, nil
		default:
			return domain.Message{}, domain.ErrChannelClosed
		}
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

// Close marks the end of the stream. It is safe to call more than once.
func (c *Channel) Close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed once Close has been called.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Len returns the number of queued messages.
func (c *Channel) Len() int {
	return len(c.items)
}
