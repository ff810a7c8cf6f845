package observe

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/marcelohmariano/blade/internal/domain"
)

// BusPublisher publishes settled rounds on the signal bus: live on
// ChannelRound, durably on StreamRounds, and the tracker's status on
// ChannelStatus.
type BusPublisher struct {
	bus     domain.SignalBus
	tracker *Tracker
	logger  *slog.Logger
}

// NewBusPublisher creates a publisher. tracker may be nil, in which case no
// status messages are sent.
func NewBusPublisher(bus domain.SignalBus, tracker *Tracker, logger *slog.Logger) *BusPublisher {
	return &BusPublisher{
		bus:     bus,
		tracker: tracker,
		logger:  logger.With(slog.String("component", "bus_publisher")),
	}
}

// OnRound publishes res.
func (p *BusPublisher) OnRound(ctx context.Context, res domain.RoundResult) {
	payload, err := json.Marshal(res)
	if err != nil {
		p.warn("marshal round", err)
		return
	}
	if err := p.bus.Publish(ctx, domain.ChannelRound, payload); err != nil {
		p.warn("publish round", err)
	}
	if err := p.bus.StreamAppend(ctx, domain.StreamRounds, payload); err != nil {
		p.warn("append round", err)
	}
	if p.tracker != nil {
		p.PublishStatus(ctx)
	}
}

// PublishStatus sends the tracker's current status on ChannelStatus.
func (p *BusPublisher) PublishStatus(ctx context.Context) {
	if p.tracker == nil {
		return
	}
	payload, err := json.Marshal(p.tracker.Status())
	if err != nil {
		p.warn("marshal status", err)
		return
	}
	if err := p.bus.Publish(ctx, domain.ChannelStatus, payload); err != nil {
		p.warn("publish status", err)
	}
}

func (p *BusPublisher) warn(op string, err error) {
	p.logger.Warn("signal bus "+op+" failed", slog.String("error", err.Error()))
}
