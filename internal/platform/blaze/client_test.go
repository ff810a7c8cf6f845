package blaze

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcelohmariano/blade/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientPlaceBet(t *testing.T) {
	var got BetRequest
	var auth, ref string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/roulette_bets" {
			t.Errorf("request = %s %s, want POST /roulette_bets", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		ref = r.Header.Get("Referer")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", Token: "tok"}, discardLogger())
	if err := c.PlaceBet(context.Background(), domain.ColorWhite, 0.5, 42); err != nil {
		t.Fatalf("PlaceBet() error = %v", err)
	}

	want := BetRequest{Amount: "0.5", CurrencyType: "BRL", Color: 0, WalletID: 42}
	if got != want {
		t.Errorf("body = %+v, want %+v", got, want)
	}
	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer tok")
	}
	if ref != referer {
		t.Errorf("Referer = %q, want %q", ref, referer)
	}
}

func TestClientPlaceBetFailureIsTransportError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, SyncRetries: 3}, discardLogger())
	err := c.PlaceBet(context.Background(), domain.ColorRed, 5, 1)
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("PlaceBet() error = %v, want %v", err, domain.ErrTransport)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestClientWallet(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantID   int64
		wantBal  float64
		wantErr  error
	}{
		{name: "string balance", body: `[{"id":7,"balance":"123.45"},{"id":8,"balance":"1"}]`, wantID: 7, wantBal: 123.45},
		{name: "numeric balance", body: `[{"id":9,"balance":10}]`, wantID: 9, wantBal: 10},
		{name: "no wallets", body: `[]`, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/wallets" {
					t.Errorf("path = %s, want /wallets", r.URL.Path)
				}
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{BaseURL: srv.URL}, discardLogger())
			got, err := c.Wallet(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Wallet() error = %v, want %v", err, tt.wantErr)
			}
			if got.ID != tt.wantID || got.Balance != tt.wantBal {
				t.Errorf("Wallet() = %+v, want id %d balance %v", got, tt.wantID, tt.wantBal)
			}
		})
	}
}

func TestClientWalletRetriesTransientFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		io.WriteString(w, `[{"id":1,"balance":"50"}]`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, SyncRetries: 2}, discardLogger())
	bal, err := c.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("FetchBalance() error = %v", err)
	}
	if bal != 50 {
		t.Errorf("FetchBalance() = %v, want 50", bal)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestClientWalletUnauthorizedNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, SyncRetries: 3}, discardLogger())
	_, err := c.Wallet(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Wallet() error = %v, want %v", err, domain.ErrUnauthorized)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
