package blaze

import (
	"encoding/json"
	"testing"
)

func TestDecodePacket(t *testing.T) {
	tests := []struct {
		frame     string
		wantKind  string
		wantEvent string
		wantArgs  int
	}{
		{frame: `0{"sid":"abc","pingInterval":25000}`, wantKind: "open"},
		{frame: `2`, wantKind: "ping"},
		{frame: `3`, wantKind: "pong"},
		{frame: `40`, wantKind: "connect"},
		{frame: `40{"sid":"x"}`, wantKind: "connect"},
		{frame: `41`, wantKind: "disconnect"},
		{frame: `44{"message":"bad"}`, wantKind: "error"},
		{frame: `42["data",{"id":"double.tick"}]`, wantKind: "event", wantEvent: "data", wantArgs: 1},
		{frame: `42/replication,["data",{}]`, wantKind: "event", wantEvent: "data", wantArgs: 1},
		{frame: `4217["ack",1,2]`, wantKind: "event", wantEvent: "ack", wantArgs: 2},
		{frame: `6`, wantKind: "noop"},
	}

	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			p, err := decodePacket([]byte(tt.frame))
			if err != nil {
				t.Fatalf("decodePacket() error = %v", err)
			}
			if p.kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", p.kind, tt.wantKind)
			}
			if p.event != tt.wantEvent {
				t.Errorf("event = %q, want %q", p.event, tt.wantEvent)
			}
			if len(p.args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(p.args), tt.wantArgs)
			}
		})
	}
}

func TestDecodePacketErrors(t *testing.T) {
	for _, frame := range []string{``, `4`, `42not-json`, `42[]`} {
		if _, err := decodePacket([]byte(frame)); err == nil {
			t.Errorf("decodePacket(%q) error = nil, want error", frame)
		}
	}
}

func TestEncodeEvent(t *testing.T) {
	frame, err := encodeEvent("cmd", Command{ID: "subscribe", Payload: map[string]string{"room": "double_v2"}})
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	want := `42["cmd",{"id":"subscribe","payload":{"room":"double_v2"}}]`
	if string(frame) != want {
		t.Errorf("encodeEvent() = %s, want %s", frame, want)
	}

	p, err := decodePacket(frame)
	if err != nil {
		t.Fatalf("decodePacket() error = %v", err)
	}
	var cmd Command
	if err := json.Unmarshal(p.args[0], &cmd); err != nil || cmd.ID != "subscribe" {
		t.Errorf("decoded command = %+v (err %v), want id subscribe", cmd, err)
	}
}
