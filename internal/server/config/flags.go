package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/filestream/internal/flagx"
)

var serverFlags = []string{
	"-a", "-g", "-u", "-s", "-k", "-t",
	"-bot-token", "-bot-owner", "-bot-channel", "-public-bot", "-webhook-path", "-webhook-secret",
	"-backend", "-rate-limit", "-rate-window", "-rate-store", "-d",
	"-timeout", "-max-size", "-log-level",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string             HTTP bind address (e.g., ":8080")
//	-g string             gRPC bind address (e.g., ":50051")
//	-u string             public URL used in generated links
//	-s string             link token secret
//	-k string             admin JWT secret
//	-t duration           admin token validity
//	-bot-token string     bot API token
//	-bot-owner int        owner user id
//	-bot-channel int      storage channel id
//	-public-bot           let anyone use the bot
//	-webhook-path string  webhook route
//	-webhook-secret       webhook secret token
//	-backend string       "telegram" or "s3"
//	-rate-limit int       requests per window
//	-rate-window duration window length
//	-rate-store string    "memory" or "postgres"
//	-d string             PostgreSQL DSN
//	-timeout duration     backend timeout per retrieval
//	-max-size int         largest served file, bytes
//	-log-level string     debug, info, warn or error
//
// os.Args is first filtered down to these flags with flagx.FilterArgs so the
// JSON config flag does not collide with them.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC server")
	fs.StringVar(&config.PublicURL, "u", config.PublicURL, "public URL")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminSecret, "k", config.AdminSecret, "admin secret")
	fs.DurationVar(&config.AdminTokenValidityDuration, "t", config.AdminTokenValidityDuration, "admin token validity")

	fs.StringVar(&config.BotToken, "bot-token", config.BotToken, "bot token")
	fs.Int64Var(&config.BotOwner, "bot-owner", config.BotOwner, "bot owner id")
	fs.Int64Var(&config.BotChannel, "bot-channel", config.BotChannel, "bot channel id")
	fs.BoolVar(&config.PublicBot, "public-bot", config.PublicBot, "public bot")
	fs.StringVar(&config.BotWebhookPath, "webhook-path", config.BotWebhookPath, "webhook path")
	fs.StringVar(&config.BotWebhookSecret, "webhook-secret", config.BotWebhookSecret, "webhook secret")

	fs.StringVar(&config.Backend, "backend", config.Backend, "storage backend")
	fs.IntVar(&config.RateLimit, "rate-limit", config.RateLimit, "requests per window")
	fs.DurationVar(&config.RateWindow, "rate-window", config.RateWindow, "rate window")
	fs.StringVar(&config.RateStore, "rate-store", config.RateStore, "rate record store")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	fs.DurationVar(&config.BackendTimeout, "timeout", config.BackendTimeout, "backend timeout")
	fs.Int64Var(&config.MaxFileSize, "max-size", config.MaxFileSize, "max file size")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
