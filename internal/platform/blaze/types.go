package blaze

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

// flexFloat unmarshals from a JSON number or a numeric string; the wallets
// endpoint sends balances as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("blaze: parse number %q: %w", s, err)
	}
	*f = flexFloat(n)
	return nil
}

// --------------------------------------------------------------------------
// REST DTOs
// --------------------------------------------------------------------------

// BetRequest is the body of POST /roulette_bets.
type BetRequest struct {
	Amount       string `json:"amount"`
	CurrencyType string `json:"currency_type"`
	Color        int    `json:"color"`
	FreeBet      bool   `json:"free_bet"`
	WalletID     int64  `json:"wallet_id"`
}

// APIWallet is one element of GET /wallets.
type APIWallet struct {
	ID       int64     `json:"id"`
	Balance  flexFloat `json:"balance"`
	Currency string    `json:"currency_type,omitempty"`
}

// Wallet is the account the bot bets from.
type Wallet struct {
	ID      int64
	Balance float64
}

// --------------------------------------------------------------------------
// Realtime DTOs
// --------------------------------------------------------------------------

// DataEvent is the envelope of every "data" event on the replication socket.
type DataEvent struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Command is emitted as a "cmd" event.
type Command struct {
	ID      string `json:"id"`
	Payload any    `json:"payload"`
}

// TickPayload is the payload of a double.tick event.
type TickPayload struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Color     json.RawMessage `json:"color"`
	CreatedAt string          `json:"created_at"`
}

// DecodeTick validates a double.tick payload. Statuses other than waiting
// and rolling yield domain.ErrUnknownPhase; a rolling tick without a valid
// color yields domain.ErrMalformedEvent. A missing or unparseable created_at
// falls back to now.
func DecodeTick(raw []byte, now func() time.Time) (domain.Event, error) {
	var p TickPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	ev := domain.Event{
		RoundID: p.ID,
		Phase:   domain.Phase(p.Status),
		Time:    parseTime(p.CreatedAt, now),
	}
	if !ev.Phase.Valid() {
		return domain.Event{}, fmt.Errorf("%w %q", domain.ErrUnknownPhase, p.Status)
	}
	if ev.Phase != domain.PhaseRolling {
		return ev, nil
	}

	c, err := decodeColor(p.Color)
	if err != nil {
		return domain.Event{}, err
	}
	ev.Color = c
	return ev, nil
}

func decodeColor(raw json.RawMessage) (domain.Color, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, fmt.Errorf("%w: rolling tick without color", domain.ErrMalformedEvent)
	}
	return domain.ParseColor(s)
}

func parseTime(s string, now func() time.Time) time.Time {
	if s == "" {
		return now()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now()
}
