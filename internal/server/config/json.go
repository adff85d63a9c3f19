package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filestream/internal/flagx"
	"github.com/dmitrijs2005/filestream/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	PublicURL        string `json:"public_url"`
	LogLevel         string `json:"log_level"`

	SecretKey                  string         `json:"secret_key"`
	AdminSecret                string         `json:"admin_secret"`
	AdminTokenValidityDuration timex.Duration `json:"admin_token_validity_duration"`

	BotToken             string  `json:"bot_token"`
	BotAPIBaseURL        string  `json:"bot_api_base_url"`
	BotWebhookPath       string  `json:"bot_webhook_path"`
	BotWebhookSecret     string  `json:"bot_webhook_secret"`
	BotOwner             int64   `json:"bot_owner"`
	BotChannel           int64   `json:"bot_channel"`
	PublicBot            bool    `json:"public_bot"`
	BotRequestsPerSecond float64 `json:"bot_requests_per_second"`

	Backend        string `json:"backend"`
	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3KeyPrefix    string `json:"s3_key_prefix"`

	RateLimit   int            `json:"rate_limit"`
	RateWindow  timex.Duration `json:"rate_window"`
	RateStore   string         `json:"rate_store"`
	DatabaseDSN string         `json:"database_dsn"`

	BackendTimeout timex.Duration `json:"backend_timeout"`
	MaxFileSize    int64          `json:"max_file_size"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:           c.EndpointAddrHTTP,
		EndpointAddrGRPC:           c.EndpointAddrGRPC,
		PublicURL:                  c.PublicURL,
		LogLevel:                   c.LogLevel,
		SecretKey:                  c.SecretKey,
		AdminSecret:                c.AdminSecret,
		AdminTokenValidityDuration: timex.Duration{Duration: c.AdminTokenValidityDuration},
		BotToken:                   c.BotToken,
		BotAPIBaseURL:              c.BotAPIBaseURL,
		BotWebhookPath:             c.BotWebhookPath,
		BotWebhookSecret:           c.BotWebhookSecret,
		BotOwner:                   c.BotOwner,
		BotChannel:                 c.BotChannel,
		PublicBot:                  c.PublicBot,
		BotRequestsPerSecond:       c.BotRequestsPerSecond,
		Backend:                    c.Backend,
		S3RootUser:                 c.S3RootUser,
		S3RootPassword:             c.S3RootPassword,
		S3Bucket:                   c.S3Bucket,
		S3Region:                   c.S3Region,
		S3BaseEndpoint:             c.S3BaseEndpoint,
		S3KeyPrefix:                c.S3KeyPrefix,
		RateLimit:                  c.RateLimit,
		RateWindow:                 timex.Duration{Duration: c.RateWindow},
		RateStore:                  c.RateStore,
		DatabaseDSN:                c.DatabaseDSN,
		BackendTimeout:             timex.Duration{Duration: c.BackendTimeout},
		MaxFileSize:                c.MaxFileSize,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.PublicURL = j.PublicURL
	c.LogLevel = j.LogLevel
	c.SecretKey = j.SecretKey
	c.AdminSecret = j.AdminSecret
	c.AdminTokenValidityDuration = j.AdminTokenValidityDuration.Duration
	c.BotToken = j.BotToken
	c.BotAPIBaseURL = j.BotAPIBaseURL
	c.BotWebhookPath = j.BotWebhookPath
	c.BotWebhookSecret = j.BotWebhookSecret
	c.BotOwner = j.BotOwner
	c.BotChannel = j.BotChannel
	c.PublicBot = j.PublicBot
	c.BotRequestsPerSecond = j.BotRequestsPerSecond
	c.Backend = j.Backend
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3KeyPrefix = j.S3KeyPrefix
	c.RateLimit = j.RateLimit
	c.RateWindow = j.RateWindow.Duration
	c.RateStore = j.RateStore
	c.DatabaseDSN = j.DatabaseDSN
	c.BackendTimeout = j.BackendTimeout.Duration
	c.MaxFileSize = j.MaxFileSize
}

// parseJson overlays values from the JSON file named by -c / -config.
// Keys absent from the file keep their current value. If no file is given
// nothing happens; an unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}
