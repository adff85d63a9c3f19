package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "FILESTREAM_"

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

func envString(name string, dst *string) {
	if v, ok := lookupEnv(EnvPrefix + name); ok {
		*dst = v
	}
}

func envParsed[T any](name string, dst *T, parse func(string) (T, error)) {
	v, ok := lookupEnv(EnvPrefix + name)
	if !ok {
		return
	}
	parsed, err := parse(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
	}
	*dst = parsed
}

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

// parseEnv overlays FILESTREAM_* environment variables. Set but malformed
// values panic, like the other loaders.
func parseEnv(config *Config) {
	envString("ENDPOINT_ADDR_HTTP", &config.EndpointAddrHTTP)
	envString("ENDPOINT_ADDR_GRPC", &config.EndpointAddrGRPC)
	envString("PUBLIC_URL", &config.PublicURL)
	envString("LOG_LEVEL", &config.LogLevel)

	envString("SECRET_KEY", &config.SecretKey)
	envString("ADMIN_SECRET", &config.AdminSecret)
	envParsed("ADMIN_TOKEN_VALIDITY_DURATION", &config.AdminTokenValidityDuration, time.ParseDuration)

	envString("BOT_TOKEN", &config.BotToken)
	envString("BOT_API_BASE_URL", &config.BotAPIBaseURL)
	envString("BOT_WEBHOOK_PATH", &config.BotWebhookPath)
	envString("BOT_WEBHOOK_SECRET", &config.BotWebhookSecret)
	envParsed("BOT_OWNER", &config.BotOwner, parseInt64)
	envParsed("BOT_CHANNEL", &config.BotChannel, parseInt64)
	envParsed("PUBLIC_BOT", &config.PublicBot, strconv.ParseBool)
	envParsed("BOT_REQUESTS_PER_SECOND", &config.BotRequestsPerSecond, parseFloat)

	envString("BACKEND", &config.Backend)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("S3_KEY_PREFIX", &config.S3KeyPrefix)

	envParsed("RATE_LIMIT", &config.RateLimit, strconv.Atoi)
	envParsed("RATE_WINDOW", &config.RateWindow, time.ParseDuration)
	envString("RATE_STORE", &config.RateStore)
	envString("DATABASE_DSN", &config.DatabaseDSN)

	envParsed("BACKEND_TIMEOUT", &config.BackendTimeout, time.ParseDuration)
	envParsed("MAX_FILE_SIZE", &config.MaxFileSize, parseInt64)
}
