package blaze

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Engine.IO packet types, sent as the first byte of each text frame.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
)

// Socket.IO packet types, following an Engine.IO message byte.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// packet is a decoded socket.io frame.
type packet struct {
	kind  string // "open", "ping", "pong", "close", "connect", "disconnect", "event", "error", "noop"
	data  []byte
	event string
	args  []json.RawMessage
}

// handshake is the Engine.IO open payload.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

func (h handshake) interval() time.Duration {
	if h.PingInterval <= 0 {
		return 25 * time.Second
	}
	return time.Duration(h.PingInterval) * time.Millisecond
}

func (h handshake) timeout() time.Duration {
	if h.PingTimeout <= 0 {
		return 20 * time.Second
	}
	return time.Duration(h.PingTimeout) * time.Millisecond
}

var errEmptyFrame = errors.New("socketio: empty frame")

// decodePacket parses one text frame.
func decodePacket(frame []byte) (packet, error) {
	if len(frame) == 0 {
		return packet{}, errEmptyFrame
	}
	body := frame[1:]
	switch frame[0] {
	case eioOpen:
		return packet{kind: "open", data: body}, nil
	case eioClose:
		return packet{kind: "close"}, nil
	case eioPing:
		return packet{kind: "ping", data: body}, nil
	case eioPong:
		return packet{kind: "pong", data: body}, nil
	case eioMessage:
		return decodeMessage(body)
	default:
		return packet{kind: "noop"}, nil
	}
}

func decodeMessage(body []byte) (packet, error) {
	if len(body) == 0 {
		return packet{}, errEmptyFrame
	}
	rest := skipNamespace(body[1:])
	switch body[0] {
	case sioConnect:
		return packet{kind: "connect", data: rest}, nil
	case sioDisconnect:
		return packet{kind: "disconnect"}, nil
	case sioConnectError:
		return packet{kind: "error", data: rest}, nil
	case sioEvent:
		rest = skipAckID(rest)
		var parts []json.RawMessage
		if err := json.Unmarshal(rest, &parts); err != nil {
			return packet{}, fmt.Errorf("socketio: decode event: %w", err)
		}
		if len(parts) == 0 {
			return packet{}, errors.New("socketio: event without name")
		}
		var name string
		if err := json.Unmarshal(parts[0], &name); err != nil {
			return packet{}, fmt.Errorf("socketio: decode event name: %w", err)
		}
		return packet{kind: "event", event: name, args: parts[1:]}, nil
	default:
		return packet{kind: "noop"}, nil
	}
}

// skipNamespace drops a leading "/nsp," prefix.
func skipNamespace(b []byte) []byte {
	if len(b) == 0 || b[0] != '/' {
		return b
	}
	for i, c := range b {
		if c == ',' {
			return b[i+1:]
		}
	}
	return nil
}

func skipAckID(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	return b[i:]
}

// encodeEvent builds a socket.io event frame: 42["name",arg].
func encodeEvent(name string, arg any) ([]byte, error) {
	data, err := json.Marshal([]any{name, arg})
	if err != nil {
		return nil, fmt.Errorf("socketio: encode %s: %w", name, err)
	}
	return append([]byte{eioMessage, sioEvent}, data...), nil
}
