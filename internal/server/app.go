// Package server wires configuration, storage backends, the admission
// governor and the HTTP and gRPC endpoints into one runnable application,
// and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/filestream/internal/cryptox"
	"github.com/dmitrijs2005/filestream/internal/logging"
	"github.com/dmitrijs2005/filestream/internal/ratelimit"
	"github.com/dmitrijs2005/filestream/internal/s3store"
	"github.com/dmitrijs2005/filestream/internal/server/config"
	"github.com/dmitrijs2005/filestream/internal/server/httpapi"
	"github.com/dmitrijs2005/filestream/internal/server/services"
	"github.com/dmitrijs2005/filestream/internal/telegram"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/filestream/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	governor   *ratelimit.Governor
	handler    *httpapi.Handler
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
	closers    []func() error
}

// backend is what a storage backend contributes to the app.
type backend struct {
	resolver services.MetadataResolver
	source   services.BlobSource
	bot      httpapi.UpdateHandler
	admin    httpapi.BotAdmin
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}
	fail := func(err error) (*App, error) {
		app.close(ctx)
		return nil, err
	}

	codec, err := cryptox.NewTokenCodec(c.SecretKey)
	if err != nil {
		return nil, err
	}

	store, err := app.rateStore(ctx)
	if err != nil {
		return fail(fmt.Errorf("rate store init error: %w", err))
	}
	app.governor = ratelimit.New(store, c.RateLimit, c.RateWindow, logger)

	var b backend
	switch c.Backend {
	case config.BackendS3:
		b, err = app.s3Backend(ctx)
	default:
		b, err = app.telegramBackend(codec)
	}
	if err != nil {
		return fail(fmt.Errorf("backend init error: %w", err))
	}

	fetcher := services.NewSourceFetcher(b.source, c.MaxFileSize)
	retriever := services.NewRetriever(app.governor, codec, b.resolver, fetcher, c.BackendTimeout, logger)

	app.handler = httpapi.NewHandler(retriever, b.bot, b.admin, httpapi.Options{
		PublicURL:     c.PublicURL,
		WebhookPath:   c.BotWebhookPath,
		WebhookSecret: c.BotWebhookSecret,
		AdminSecret:   []byte(c.AdminSecret),
		UpdateTimeout: c.BackendTimeout,
	}, logger)
	app.httpServer = httpapi.NewServer(c.EndpointAddrHTTP, app.handler.Routes(), logger)
	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger)

	return app, nil
}

func (app *App) rateStore(ctx context.Context) (ratelimit.Store, error) {
	if app.config.RateStore != config.RateStorePostgres {
		return ratelimit.NewMemoryStore(), nil
	}

	db, err := ratelimit.OpenPostgres(app.config.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db.Close)

	if err := ratelimit.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return ratelimit.NewPostgresStore(db), nil
}

func (app *App) telegramBackend(codec services.IDCodec) (backend, error) {
	c := app.config

	tg, err := telegram.NewClient(telegram.Config{
		Token:             c.BotToken,
		BaseURL:           c.BotAPIBaseURL,
		RequestsPerSecond: c.BotRequestsPerSecond,
		Logger:            app.logger,
	})
	if err != nil {
		return backend{}, err
	}

	resolver := services.NewCaptionResolver(tg, c.BotChannel)
	bot := services.NewBotService(tg, codec, resolver, services.BotConfig{
		PublicURL: c.PublicURL,
		Owner:     c.BotOwner,
		Channel:   c.BotChannel,
		Public:    c.PublicBot,
	}, app.logger)

	return backend{resolver: resolver, source: tg, bot: bot, admin: tg}, nil
}

func (app *App) s3Backend(ctx context.Context) (backend, error) {
	c := app.config

	st, err := s3store.New(ctx, s3store.Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		KeyPrefix:    c.S3KeyPrefix,
	})
	if err != nil {
		return backend{}, err
	}

	return backend{resolver: st, source: st}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails. It returns the first failure.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.Backend, "rate_store", app.config.RateStore)

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(gctx) })
	g.Go(func() error { return app.grpcServer.Run(gctx) })
	g.Go(func() error { return app.governor.Run(gctx) })

	err := g.Wait()

	app.handler.Wait()
	app.close(ctx)

	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) close(ctx context.Context) {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "close failed", "error", err)
	}
}
