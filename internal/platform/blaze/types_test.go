package blaze

import (
	"errors"
	"testing"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

func TestDecodeTick(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return fixed }

	tests := []struct {
		name    string
		raw     string
		want    domain.Event
		wantErr error
	}{
		{
			name: "waiting",
			raw:  `{"id":"r1","status":"waiting","color":null,"created_at":"2024-05-01T11:59:30.000Z"}`,
			want: domain.Event{RoundID: "r1", Phase: domain.PhaseWaiting, Time: time.Date(2024, 5, 1, 11, 59, 30, 0, time.UTC)},
		},
		{
			name: "rolling",
			raw:  `{"id":"r1","status":"rolling","color":2,"created_at":"2024-05-01T11:59:30.000Z"}`,
			want: domain.Event{RoundID: "r1", Phase: domain.PhaseRolling, Color: domain.ColorBlack, Time: time.Date(2024, 5, 1, 11, 59, 30, 0, time.UTC)},
		},
		{
			name: "missing timestamp defaults to now",
			raw:  `{"status":"rolling","color":0}`,
			want: domain.Event{Phase: domain.PhaseRolling, Color: domain.ColorWhite, Time: fixed},
		},
		{
			name: "bad timestamp defaults to now",
			raw:  `{"status":"waiting","created_at":"yesterday"}`,
			want: domain.Event{Phase: domain.PhaseWaiting, Time: fixed},
		},
		{name: "rolling without color", raw: `{"status":"rolling"}`, wantErr: domain.ErrMalformedEvent},
		{name: "rolling with bad color", raw: `{"status":"rolling","color":7}`, wantErr: domain.ErrMalformedEvent},
		{name: "complete status", raw: `{"status":"complete","color":1}`, wantErr: domain.ErrUnknownPhase},
		{name: "not json", raw: `nope`, wantErr: domain.ErrMalformedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTick([]byte(tt.raw), now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeTick() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.RoundID != tt.want.RoundID || got.Phase != tt.want.Phase || got.Color != tt.want.Color || !got.Time.Equal(tt.want.Time) {
				t.Errorf("DecodeTick() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnknownPhaseIsMalformed(t *testing.T) {
	if !errors.Is(domain.ErrUnknownPhase, domain.ErrMalformedEvent) {
		t.Error("ErrUnknownPhase does not wrap ErrMalformedEvent")
	}
}
