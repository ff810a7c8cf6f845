package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/platform/blaze"
)

func TestBlazeFeedDecode(t *testing.T) {
	f := NewBlazeFeed(blaze.WSConfig{}, nil, discardLogger())
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }

	tests := []struct {
		name    string
		id      string
		payload string
		wantOK  bool
		want    domain.Event
	}{
		{name: "waiting", id: domain.MsgDoubleTick, payload: `{"status":"waiting"}`, wantOK: true, want: domain.Event{Phase: domain.PhaseWaiting, Time: fixed}},
		{name: "rolling", id: domain.MsgDoubleTick, payload: `{"status":"rolling","color":1}`, wantOK: true, want: domain.Event{Phase: domain.PhaseRolling, Color: domain.ColorRed, Time: fixed}},
		{name: "complete dropped", id: domain.MsgDoubleTick, payload: `{"status":"complete","color":1}`},
		{name: "rolling without color dropped", id: domain.MsgDoubleTick, payload: `{"status":"rolling"}`},
		{name: "other id passes through", id: "wallet.balance-changed", payload: `{"balance":"1"}`, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := f.decode(tt.id, json.RawMessage(tt.payload))
			if ok != tt.wantOK {
				t.Fatalf("decode() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if msg.ID != tt.id {
				t.Errorf("ID = %q, want %q", msg.ID, tt.id)
			}
			if msg.Event.Phase != tt.want.Phase || msg.Event.Color != tt.want.Color || !msg.Event.Time.Equal(tt.want.Time) {
				t.Errorf("Event = %+v, want %+v", msg.Event, tt.want)
			}
		})
	}
}
