package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBotToken = "123456789:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghi"

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "", c.SecretKey)
	assert.Equal(t, time.Hour, c.AdminTokenValidityDuration)
	assert.Equal(t, "https://api.telegram.org", c.BotAPIBaseURL)
	assert.Equal(t, "/endpoint", c.BotWebhookPath)
	assert.Equal(t, BackendTelegram, c.Backend)
	assert.Equal(t, 30, c.RateLimit)
	assert.Equal(t, time.Minute, c.RateWindow)
	assert.Equal(t, RateStoreMemory, c.RateStore)
	assert.Equal(t, 30*time.Second, c.BackendTimeout)
	assert.Equal(t, int64(20<<20), c.MaxFileSize)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, 30, c.RateLimit)
}

func TestLoadConfig_Layering(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"endpoint_addr_http": ":7000",
		"rate_limit":         10,
		"secret_key":         "from-json",
	})
	t.Setenv("FILESTREAM_RATE_LIMIT", "20")
	t.Setenv("FILESTREAM_SECRET_KEY", "from-env")

	os.Args = []string{"testbin", "-c", path, "-s", "from-flag"}

	c := LoadConfig()
	assert.Equal(t, ":7000", c.EndpointAddrHTTP, "json over defaults")
	assert.Equal(t, 20, c.RateLimit, "env over json")
	assert.Equal(t, "from-flag", c.SecretKey, "flags over env")
}

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.SecretKey = "s3cr3t"
	c.BotToken = validBotToken
	c.BotChannel = -1001234567890
	c.BotWebhookSecret = "hook"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.SecretKey = "" }, "secret key"},
		{"short bot token", func(c *Config) { c.BotToken = "123:abc" }, "bot token"},
		{"bot token without id", func(c *Config) { c.BotToken = "abc:" + strings.Repeat("x", 35) }, "bot token"},
		{"group instead of channel", func(c *Config) { c.BotChannel = -12345 }, "bot channel"},
		{"missing webhook secret", func(c *Config) { c.BotWebhookSecret = "" }, "webhook secret"},
		{"unknown backend", func(c *Config) { c.Backend = "ftp" }, "unknown backend"},
		{"s3 skips bot checks", func(c *Config) { c.Backend = BackendS3; c.BotToken = ""; c.BotChannel = 0 }, ""},
		{"s3 needs bucket", func(c *Config) { c.Backend = BackendS3; c.S3Bucket = "" }, "s3 bucket"},
		{"zero limit", func(c *Config) { c.RateLimit = 0 }, "rate limit"},
		{"zero window", func(c *Config) { c.RateWindow = 0 }, "rate window"},
		{"postgres without dsn", func(c *Config) { c.RateStore = RateStorePostgres }, "database dsn"},
		{"postgres with dsn", func(c *Config) { c.RateStore = RateStorePostgres; c.DatabaseDSN = "postgres://x" }, ""},
		{"unknown store", func(c *Config) { c.RateStore = "redis" }, "unknown rate store"},
		{"zero timeout", func(c *Config) { c.BackendTimeout = 0 }, "backend timeout"},
		{"zero max size", func(c *Config) { c.MaxFileSize = 0 }, "max file size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key")
	assert.Contains(t, err.Error(), "unknown backend")
	assert.Contains(t, err.Error(), "rate limit")
}
