// Package config defines the bot configuration and its validation.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // replay timezones must resolve on minimal images

	"github.com/marcelohmariano/blade/internal/domain"
)

// Run modes.
const (
	ModeLive     = "live"
	ModeSimulate = "simulate"
	ModeReplay   = "replay"
	ModeRecord   = "record"
)

// Replay sources.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// Config is the root configuration. Fields come from a TOML file and may be
// overridden by BLADE_* environment variables.
type Config struct {
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
	Blaze    BlazeConfig    `toml:"blaze"`
	Wallet   WalletConfig   `toml:"wallet"`
	Bot      BotConfig      `toml:"bot"`
	Strategy StrategyConfig `toml:"strategy"`
	Replay   ReplayConfig   `toml:"replay"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Kafka    KafkaConfig    `toml:"kafka"`
	Lock     LockConfig     `toml:"lock"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
}

// BlazeConfig holds the game API endpoints and credentials.
type BlazeConfig struct {
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"`
	Room   string `toml:"room"`
	// EIO is the Engine.IO revision spoken on the socket (3 or 4).
	EIO                int      `toml:"eio"`
	Token              string   `toml:"token"`
	EncryptedTokenPath string   `toml:"encrypted_token_path"`
	TokenPassword      string   `toml:"token_password"`
	UserAgent          string   `toml:"user_agent"`
	Currency           string   `toml:"currency"`
	HTTPTimeout        duration `toml:"http_timeout"`
	SyncRetries        int      `toml:"sync_retries"`
	// WalletID skips wallet discovery when set.
	WalletID int64 `toml:"wallet_id"`
}

// WalletConfig seeds the simulated wallet.
type WalletConfig struct {
	InitialBalance float64 `toml:"initial_balance"`
}

// BotConfig sizes the event queue.
type BotConfig struct {
	QueueSize int `toml:"queue_size"`
}

// StrategyConfig selects and parameterises the staking strategy.
type StrategyConfig struct {
	Name       string           `toml:"name"`
	Martingale MartingaleConfig `toml:"martingale"`
	DualBet    DualBetConfig    `toml:"dual_bet"`
}

type MartingaleConfig struct {
	Color          domain.Color `toml:"color"`
	InitialStake   float64      `toml:"initial_stake"`
	LossThreshold  int          `toml:"loss_threshold"`
	AllowedMinutes []int        `toml:"allowed_minutes"`
}

type DualBetConfig struct {
	BaseStake      float64        `toml:"base_stake"`
	Cycle          []domain.Color `toml:"cycle"`
	HedgeColor     domain.Color   `toml:"hedge_color"`
	HedgeFraction  float64        `toml:"hedge_fraction"`
	HedgeMin       float64        `toml:"hedge_min"`
	LossThreshold  int            `toml:"loss_threshold"`
	AllowedMinutes []int          `toml:"allowed_minutes"`
}

// ReplayConfig chooses where replay mode reads history from.
type ReplayConfig struct {
	Source string   `toml:"source"`
	Paths  []string `toml:"paths"`
	Prefix string   `toml:"prefix"`
	// Timezone applies to zone-less times in CSV history.
	Timezone string `toml:"timezone"`
	Since    string `toml:"since"`
	Until    string `toml:"until"`
}

// PostgresConfig holds the history database connection.
type PostgresConfig struct {
	Enabled       bool     `toml:"enabled"`
	DSN           string   `toml:"dsn"`
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	Database      string   `toml:"database"`
	User          string   `toml:"user"`
	Password      string   `toml:"password"`
	SSLMode       string   `toml:"ssl_mode"`
	PoolMaxConns  int      `toml:"pool_max_conns"`
	PoolMinConns  int      `toml:"pool_min_conns"`
	ConnTimeout   duration `toml:"conn_timeout"`
	RunMigrations bool     `toml:"run_migrations"`
}

// RedisConfig holds the pub/sub and lock connection.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	StreamMaxLen int64  `toml:"stream_max_len"`
}

// S3Config holds the archive bucket.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// KafkaConfig holds the round event topic.
type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// LockConfig tunes the per-wallet betting lock.
type LockConfig struct {
	TTL duration `toml:"ttl"`
}

// ArchiveConfig schedules moving old rounds from Postgres to S3.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
	BatchSize     int      `toml:"batch_size"`
}

// ServerConfig holds the status API settings.
type ServerConfig struct {
	Enabled      bool     `toml:"enabled"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	APIKey       string   `toml:"api_key"`
	RateLimit    int      `toml:"rate_limit"`
	RecentRounds int      `toml:"recent_rounds"`
}

// NotifyConfig holds chat alert destinations.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML can read "30s" style strings.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Mode:     ModeSimulate,
		LogLevel: "info",
		Blaze: BlazeConfig{
			APIURL:      "https://blaze.com/api",
			WSURL:       "wss://api-v2.blaze.com",
			Room:        "double_v2",
			EIO:         3,
			Currency:    "BRL",
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
			HTTPTimeout: duration{30 * time.Second},
			SyncRetries: 3,
		},
		Wallet: WalletConfig{InitialBalance: 100},
		Bot:    BotConfig{QueueSize: 64},
		Strategy: StrategyConfig{
			Name: "martingale",
			Martingale: MartingaleConfig{
				Color:         domain.ColorWhite,
				InitialStake:  5,
				LossThreshold: 14,
			},
			DualBet: DualBetConfig{
				BaseStake:     0.4,
				Cycle:         []domain.Color{domain.ColorRed, domain.ColorRed, domain.ColorBlack, domain.ColorBlack},
				HedgeColor:    domain.ColorWhite,
				HedgeFraction: 0.25,
				HedgeMin:      0.1,
				LossThreshold: 2,
			},
		},
		Replay: ReplayConfig{Source: SourceFile, Timezone: "America/Sao_Paulo"},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "blade",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  5,
			PoolMinConns:  1,
			ConnTimeout:   duration{10 * time.Second},
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			MaxRetries:   3,
			StreamMaxLen: 10_000,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "blade-rounds",
			ForcePathStyle: true,
		},
		Kafka:   KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "blade.rounds"},
		Lock:    LockConfig{TTL: duration{30 * time.Second}},
		Archive: ArchiveConfig{RetentionDays: 30, Interval: duration{24 * time.Hour}, BatchSize: 10_000},
		Server: ServerConfig{
			Enabled:      true,
			Port:         8000,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			RecentRounds: 100,
		},
		Notify: NotifyConfig{
			Events: []string{"bot_started", "bot_stopped", "insufficient_balance", "error"},
		},
	}
}

var validModes = map[string]bool{
	ModeLive:     true,
	ModeSimulate: true,
	ModeReplay:   true,
	ModeRecord:   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		add("unknown mode %q (valid: live, simulate, replay, record)", c.Mode)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		add("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.Blaze.EIO != 3 && c.Blaze.EIO != 4 {
		add("blaze: eio must be 3 or 4, got %d", c.Blaze.EIO)
	}
	if c.Blaze.SyncRetries < 0 {
		add("blaze: sync_retries must be >= 0")
	}
	if mode == ModeLive && c.Blaze.Token == "" && c.Blaze.EncryptedTokenPath == "" {
		add("blaze: live mode needs token or encrypted_token_path")
	}
	if c.Bot.QueueSize < 1 {
		add("bot: queue_size must be >= 1")
	}
	if (mode == ModeSimulate || mode == ModeReplay) && c.Wallet.InitialBalance < 0 {
		add("wallet: initial_balance must be >= 0")
	}

	switch c.Strategy.Name {
	case "martingale", "dual_bet":
	default:
		if mode != ModeRecord {
			add("strategy: unknown name %q (valid: martingale, dual_bet)", c.Strategy.Name)
		}
	}
	for _, m := range slices.Concat(c.Strategy.Martingale.AllowedMinutes, c.Strategy.DualBet.AllowedMinutes) {
		if m < 0 || m > 59 {
			add("strategy: allowed minute %d out of range 0-59", m)
		}
	}

	if mode == ModeReplay {
		switch c.Replay.Source {
		case SourceFile:
			if len(c.Replay.Paths) == 0 {
				add("replay: file source needs paths")
			}
		case SourceS3:
			if !c.S3.Enabled {
				add("replay: s3 source needs [s3] enabled")
			}
		case SourcePostgres:
			if !c.Postgres.Enabled {
				add("replay: postgres source needs [postgres] enabled")
			}
		default:
			add("replay: unknown source %q (valid: file, s3, postgres)", c.Replay.Source)
		}
		for _, v := range []string{c.Replay.Since, c.Replay.Until} {
			if v == "" {
				continue
			}
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				add("replay: bad time %q: want RFC 3339", v)
			}
		}
	}
	if _, err := time.LoadLocation(c.Replay.Timezone); err != nil {
		add("replay: unknown timezone %q", c.Replay.Timezone)
	}
	if mode == ModeRecord && !c.Postgres.Enabled {
		add("record mode needs [postgres] enabled")
	}

	if c.Postgres.Enabled {
		if c.Postgres.DSN == "" && c.Postgres.Host == "" {
			add("postgres: dsn or host must be set")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			add("postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			add("redis: addr must not be empty")
		}
		if c.Lock.TTL.Duration < 3*time.Second {
			add("lock: ttl must be >= 3s")
		}
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		add("s3: bucket must not be empty")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		add("kafka: brokers and topic are required when enabled")
	}
	if c.Archive.Enabled {
		if !c.Postgres.Enabled || !c.S3.Enabled {
			add("archive: needs [postgres] and [s3] enabled")
		}
		if c.Archive.RetentionDays < 1 {
			add("archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			add("archive: interval must be > 0")
		}
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		add("server: port must be 1-65535, got %d", c.Server.Port)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
