package blaze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/retry"
)

const (
	// DefaultAPIURL is the REST root used for bets and wallets.
	DefaultAPIURL = "https://blaze.com/api"

	origin  = "https://blaze.com/"
	referer = "https://blaze.com/en/games/double"
)

// ClientConfig configures Client.
type ClientConfig struct {
	BaseURL     string
	Token       string
	UserAgent   string
	Currency    string
	Timeout     time.Duration
	SyncRetries int
}

// Client is the REST client for the Blaze betting API.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	currency   string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

// NewClient creates a Blaze REST client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAPIURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "BRL"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger = logger.With(slog.String("component", "blaze_client"))

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy: retry.Policy{
			MaxAttempts: cfg.SyncRetries + 1,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Jitter:      100 * time.Millisecond,
			Classify:    classify,
			OnRetry: func(attempt int, wait time.Duration, err error) {
				logger.Warn("retrying wallet fetch",
					slog.Int("attempt", attempt),
					slog.Duration("wait", wait),
					slog.String("error", err.Error()),
				)
			},
		},
		logger: logger,
	}
}

// PlaceBet stakes amount on color from walletID. Bets are never retried.
func (c *Client) PlaceBet(ctx context.Context, color domain.Color, amount float64, walletID int64) error {
	body := BetRequest{
		Amount:       strconv.FormatFloat(amount, 'f', -1, 64),
		CurrencyType: c.currency,
		Color:        int(color),
		FreeBet:      false,
		WalletID:     walletID,
	}
	if _, err := c.do(ctx, http.MethodPost, "/roulette_bets", body); err != nil {
		return fmt.Errorf("blaze: place bet: %w", err)
	}
	return nil
}

// Wallet returns the first wallet of the authenticated account.
func (c *Client) Wallet(ctx context.Context) (Wallet, error) {
	var out Wallet
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodGet, "/wallets", nil)
		if err != nil {
			return err
		}
		var wallets []APIWallet
		if err := json.Unmarshal(body, &wallets); err != nil {
			return fmt.Errorf("%w: decode wallets: %v", domain.ErrTransport, err)
		}
		if len(wallets) == 0 {
			return fmt.Errorf("wallets: %w", domain.ErrNotFound)
		}
		out = Wallet{ID: wallets[0].ID, Balance: float64(wallets[0].Balance)}
		return nil
	})
	if err != nil {
		return Wallet{}, fmt.Errorf("blaze: get wallet: %w", err)
	}
	return out, nil
}

// FetchBalance returns the balance of the account's wallet.
func (c *Client) FetchBalance(ctx context.Context) (float64, error) {
	w, err := c.Wallet(ctx)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// --------------------------------------------------------------------------
// Internal methods
// --------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", referer)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := strings.TrimSpace(string(body))
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", domain.ErrTransport, domain.ErrUnauthorized, bodyStr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", domain.ErrTransport, domain.ErrNotFound, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrTransport, statusCode, bodyStr)
	}
}

// classify retries transport failures except authentication errors.
func classify(err error) retry.Class {
	if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return retry.Fatal
	}
	return retry.Retryable
}
