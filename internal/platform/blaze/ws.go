package blaze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marcelohmariano/blade/internal/domain"
)

const (
	// DefaultWSURL is the replication socket host.
	DefaultWSURL = "wss://api-v2.blaze.com"
	// DefaultRoom is the Double game room.
	DefaultRoom = "double_v2"

	socketPath = "/replication/"

	// writeWait is the time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
)

// DataHandler receives every "data" event by id. It runs on the read
// goroutine; blocking it applies backpressure to the socket.
type DataHandler func(id string, payload json.RawMessage)

// WSConfig configures WSClient.
type WSConfig struct {
	URL       string
	Room      string
	Token     string
	UserAgent string
	// EIO is the Engine.IO protocol revision, 3 or 4.
	EIO int
}

// WSClient speaks socket.io over a single websocket connection to the Blaze
// replication endpoint. It subscribes to the configured room, authenticates
// when a token is set and hands "data" events to the registered handler.
// Reconnection is left to the caller.
type WSClient struct {
	cfg     WSConfig
	handler DataHandler
	logger  *slog.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewWSClient creates a client; Run connects it.
func NewWSClient(cfg WSConfig, handler DataHandler, logger *slog.Logger) *WSClient {
	if cfg.URL == "" {
		cfg.URL = DefaultWSURL
	}
	if cfg.Room == "" {
		cfg.Room = DefaultRoom
	}
	if cfg.EIO != 4 {
		cfg.EIO = 3
	}
	return &WSClient{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(slog.String("component", "blaze_ws")),
	}
}

// Endpoint returns the websocket URL including the socket.io path and query.
func (w *WSClient) Endpoint() (string, error) {
	u, err := url.Parse(w.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("blaze/ws: parse url: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = socketPath
	}
	q := u.Query()
	q.Set("EIO", fmt.Sprint(w.cfg.EIO))
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run dials, performs the socket.io handshake and reads until the connection
// fails or ctx is done. It always returns a non-nil error.
func (w *WSClient) Run(ctx context.Context) error {
	endpoint, err := w.Endpoint()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Origin", origin)
	if w.cfg.UserAgent != "" {
		header.Set("User-Agent", w.cfg.UserAgent)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("blaze/ws: connect: %w: %v", domain.ErrTransport, err)
	}
	w.conn = conn
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = w.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	err = w.readLoop(connCtx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// --------------------------------------------------------------------------
// Internal methods
// --------------------------------------------------------------------------

func (w *WSClient) readLoop(ctx context.Context) error {
	var hs handshake
	for {
		_, frame, err := w.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("blaze/ws: read: %w: %v", domain.ErrWSDisconnect, err)
		}

		p, err := decodePacket(frame)
		if err != nil {
			w.logger.Debug("dropping frame", slog.String("error", err.Error()))
			continue
		}

		switch p.kind {
		case "open":
			if err := json.Unmarshal(p.data, &hs); err != nil {
				return fmt.Errorf("blaze/ws: decode handshake: %w", err)
			}
			w.extendDeadline(hs)
			if w.cfg.EIO == 4 {
				if err := w.write(websocket.TextMessage, []byte{eioMessage, sioConnect}); err != nil {
					return fmt.Errorf("blaze/ws: connect namespace: %w", err)
				}
			} else {
				go w.pingLoop(ctx, hs.interval())
			}
		case "ping":
			w.extendDeadline(hs)
			if err := w.write(websocket.TextMessage, append([]byte{eioPong}, p.data...)); err != nil {
				return fmt.Errorf("blaze/ws: pong: %w", err)
			}
		case "pong":
			w.extendDeadline(hs)
		case "connect":
			if err := w.subscribe(); err != nil {
				return err
			}
			w.logger.Info("subscribed", slog.String("room", w.cfg.Room))
		case "error":
			return fmt.Errorf("blaze/ws: connect refused: %s", p.data)
		case "disconnect", "close":
			return fmt.Errorf("blaze/ws: %w: server closed", domain.ErrWSDisconnect)
		case "event":
			w.dispatch(p)
		}
	}
}

// subscribe joins the room and authenticates, in that order.
func (w *WSClient) subscribe() error {
	cmds := []Command{{ID: "subscribe", Payload: map[string]string{"room": w.cfg.Room}}}
	if w.cfg.Token != "" {
		cmds = append(cmds, Command{ID: "authenticate", Payload: map[string]string{"token": w.cfg.Token}})
	}
	for _, cmd := range cmds {
		frame, err := encodeEvent("cmd", cmd)
		if err != nil {
			return err
		}
		if err := w.write(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("blaze/ws: %s: %w", cmd.ID, err)
		}
	}
	return nil
}

func (w *WSClient) dispatch(p packet) {
	if p.event != "data" || len(p.args) == 0 || w.handler == nil {
		return
	}
	var ev DataEvent
	if err := json.Unmarshal(p.args[0], &ev); err != nil {
		w.logger.Debug("dropping data event", slog.String("error", err.Error()))
		return
	}
	w.handler(ev.ID, ev.Payload)
}

// pingLoop keeps Engine.IO v3 connections alive; in v3 the client pings.
func (w *WSClient) pingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.write(websocket.TextMessage, []byte{eioPing}); err != nil {
				return
			}
		}
	}
}

func (w *WSClient) extendDeadline(hs handshake) {
	_ = w.conn.SetReadDeadline(time.Now().Add(hs.interval() + hs.timeout()))
}

func (w *WSClient) write(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.conn == nil {
		return errors.New("not connected")
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(messageType, data)
}
