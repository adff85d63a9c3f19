// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	BackendTelegram = "telegram"
	BackendS3       = "s3"

	RateStoreMemory   = "memory"
	RateStorePostgres = "postgres"
)

var (
	botTokenPattern   = regexp.MustCompile(`^\d+:[\w-]{35,}$`)
	botChannelPattern = regexp.MustCompile(`^-100\d{6,}$`)
)

// Config holds runtime settings for the filestream server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the public HTTP
//     API and the operations gRPC endpoint.
//   - PublicURL: origin used when building links handed out by the bot.
//   - SecretKey: passphrase the link tokens are derived from. Changing it
//     invalidates every link ever issued.
//   - AdminSecret / AdminTokenValidityDuration: HS256 key and lifetime of
//     admin JWTs.
//   - Bot*: bot API credentials, storage channel, owner and webhook settings.
//   - Backend: "telegram" or "s3".
//   - S3*: credentials and location of the object-storage backend.
//   - RateLimit / RateWindow / RateStore / DatabaseDSN: admission settings;
//     the DSN is only needed for the postgres store.
//   - BackendTimeout: deadline for one retrieval's backend round trips.
//   - MaxFileSize: largest body the server buffers, in bytes.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	PublicURL        string
	LogLevel         string

	SecretKey                  string
	AdminSecret                string
	AdminTokenValidityDuration time.Duration

	BotToken             string
	BotAPIBaseURL        string
	BotWebhookPath       string
	BotWebhookSecret     string
	BotOwner             int64
	BotChannel           int64
	PublicBot            bool
	BotRequestsPerSecond float64

	Backend        string
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3KeyPrefix    string

	RateLimit   int
	RateWindow  time.Duration
	RateStore   string
	DatabaseDSN string

	BackendTimeout time.Duration
	MaxFileSize    int64
}

// LoadDefaults populates Config with development defaults. Secrets are left
// empty so that Validate refuses to start without them.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.PublicURL = "http://localhost:8080"
	c.LogLevel = "info"
	c.AdminTokenValidityDuration = time.Hour
	c.BotAPIBaseURL = "https://api.telegram.org"
	c.BotWebhookPath = "/endpoint"
	c.BotRequestsPerSecond = 25
	c.Backend = BackendTelegram
	c.S3Bucket = "filestream"
	c.S3Region = "us-east-1"
	c.RateLimit = 30
	c.RateWindow = time.Minute
	c.RateStore = RateStoreMemory
	c.BackendTimeout = 30 * time.Second
	c.MaxFileSize = 20 << 20
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}

	switch c.Backend {
	case BackendTelegram:
		if !botTokenPattern.MatchString(c.BotToken) {
			errs = append(errs, errors.New("bot token is missing or malformed"))
		}
		if !botChannelPattern.MatchString(strconv.FormatInt(c.BotChannel, 10)) {
			errs = append(errs, fmt.Errorf("bot channel %d is not a channel id", c.BotChannel))
		}
		if c.BotWebhookSecret == "" {
			errs = append(errs, errors.New("bot webhook secret is required"))
		}
	case BackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3 bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	if c.RateWindow <= 0 {
		errs = append(errs, errors.New("rate window must be positive"))
	}

	switch c.RateStore {
	case RateStoreMemory:
	case RateStorePostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("database dsn is required for the postgres rate store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate store %q", c.RateStore))
	}

	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max file size must be positive"))
	}

	return errors.Join(errs...)
}
