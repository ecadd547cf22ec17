package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/thriftstock/thriftstock/cmd/thriftstock/cli"
	"github.com/thriftstock/thriftstock/internal/app"
	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/imaging"
	"github.com/thriftstock/thriftstock/internal/observability"
	"github.com/thriftstock/thriftstock/internal/platform/cache"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/internal/shared"
	"github.com/thriftstock/thriftstock/internal/view"
	"github.com/thriftstock/thriftstock/internal/web"
	"github.com/thriftstock/thriftstock/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] != "serve" {
		os.Exit(runCommand(ctx, cfg, os.Args[1], os.Args[2:]))
	}
	serve(ctx, stop, cfg)
}

// runCommand handles the one-shot subcommands.
func runCommand(ctx context.Context, cfg *app.Config, name string, args []string) int {
	switch name {
	case "jobs":
		c := cli.NewJobsCLI(cfg.RedisAddr)
		defer func() { _ = c.Close() }()
		return c.JobsCommand(ctx, args, os.Stdout, os.Stderr)
	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		jsonOut := fs.Bool("json", false, "print the summary as JSON")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		client := backend.NewClient(cfg.BackendBaseURL, backend.WithTimeout(cfg.BackendTimeout))
		store := refdata.NewStore(client, refdata.WithLoadTimeout(cfg.RefdataLoadTimeout))
		return cli.CheckCommand(ctx, client, store, cli.CheckOptions{JSONOutput: *jsonOut})
	default:
		slog.Default().Error("unknown command", slog.String("command", name))
		return 2
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config) {
	logger := app.NewLogger(cfg)

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	client := backend.NewClient(cfg.BackendBaseURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger),
		backend.WithObserver(metrics),
	)

	bus := refdata.NewBus(redisClient, logger)
	store := refdata.NewStore(client,
		refdata.WithLogger(logger),
		refdata.WithObserver(metrics),
		refdata.WithPublisher(bus),
		refdata.WithLoadTimeout(cfg.RefdataLoadTimeout),
	)
	go func() {
		if err := bus.Listen(ctx, store); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("refdata bus stopped", slog.Any("error", err))
		}
	}()
	go func() {
		if err := store.Load(ctx); err != nil {
			logger.Warn("initial refdata load", slog.Any("error", err))
		}
	}()

	templates, err := view.NewEngine(view.WithImageBase(client.BaseURL()))
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "thriftstock_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	images := imaging.NewProcessor(cfg.PhotoMaxDimension)
	webHandler := web.NewHandler(logger, client, store, templates, csrfManager, images)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		WebHandler:     webHandler,
		JobHandler:     jobHandler,
		Backend:        client,
		Refdata:        store,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", client.BaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
