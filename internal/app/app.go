// Package app builds and runs the assembled platform: persistence,
// research collaborators, orchestration service, scheduler, and the
// HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/api"
	"github.com/tamaghna-docket/tickertape/internal/config"
	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/logging"
	"github.com/tamaghna-docket/tickertape/internal/notify"
	"github.com/tamaghna-docket/tickertape/internal/progress"
	"github.com/tamaghna-docket/tickertape/internal/progress/sinks"
	"github.com/tamaghna-docket/tickertape/internal/research"
	"github.com/tamaghna-docket/tickertape/internal/scheduler"
	"github.com/tamaghna-docket/tickertape/internal/service"
	"github.com/tamaghna-docket/tickertape/internal/store"
	"github.com/tamaghna-docket/tickertape/internal/ws"
)

// App contains the application's dependencies.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	store        store.Store
	svc          *service.Service
	sched        *scheduler.Scheduler
	apiServer    *api.Server
	pubsubClient *pubsub.Client
	publisher    *pubsub.Publisher
}

// Build creates the application's dependencies. A missing OpenAI key is
// not fatal: the server still answers read-only queries and rejects job
// submissions with a clear message.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies")

	if err := a.setupStore(ctx); err != nil {
		return nil, err
	}

	notifier, err := a.setupNotifier(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return nil, fmt.Errorf("prometheus sink init failed: %w", err)
	}

	jobStore := jobs.NewStore()
	manager := ws.NewManager(logger.Named("ws"))
	sink := progress.Fanout{
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
		manager,
	}

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; job submission is disabled")
	} else {
		a.svc, err = a.setupService(jobStore, sink, notifier)
		if err != nil {
			return nil, err
		}
	}

	a.apiServer = api.NewServer(
		logger.Named("api"),
		a.svc,
		jobStore,
		a.store,
		manager,
		registry,
		cfg,
	)

	if a.svc != nil {
		a.sched = scheduler.New(
			logger.Named("scheduler"),
			a.svc,
			cfg.Monitor.Clients,
			cfg.Monitor.CustomerAgeDays,
		)
	}

	return a, nil
}

func (a *App) setupStore(ctx context.Context) error {
	var err error
	switch a.cfg.DB.Driver {
	case "postgres":
		a.logger.Info("using postgres store", zap.String("dsn", "<redacted>"))
		a.store, err = store.OpenPostgres(ctx, a.cfg.DB.DSN)
	default:
		a.logger.Info("using sqlite store", zap.String("path", a.cfg.DB.Path))
		a.store, err = store.OpenSQLite(a.cfg.DB.Path)
	}
	if err != nil {
		return fmt.Errorf("store init failed: %w", err)
	}
	return nil
}

func (a *App) setupNotifier(ctx context.Context) (notify.Publisher, error) {
	if !a.cfg.PubSub.Enabled {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	a.publisher = client.Publisher(a.cfg.PubSub.TopicName)
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return notify.NewPubSub(a.publisher), nil
}

func (a *App) setupService(
	jobStore *jobs.Store,
	sink progress.Sink,
	notifier notify.Publisher,
) (*service.Service, error) {
	chat := research.NewChatClient(research.ChatConfig{
		APIKey:  a.cfg.OpenAI.APIKey,
		BaseURL: a.cfg.OpenAI.BaseURL,
		Model:   a.cfg.OpenAI.Model,
		Timeout: time.Duration(a.cfg.OpenAI.TimeoutSeconds) * time.Second,
	})
	researchLog := a.logger.Named("research")
	collab := service.Collaborators{
		Researcher: research.NewResearcher(chat, researchLog),
		Extractor:  research.NewExtractor(chat, researchLog),
		Tickers:    research.NewTickerResolver(chat, researchLog),
		Filings: research.NewEdgar(research.EdgarConfig{
			Identity: a.cfg.Edgar.Identity,
			Timeout:  time.Duration(a.cfg.Edgar.TimeoutSeconds) * time.Second,
		}, a.logger.Named("edgar")),
		Detector: research.NewSignalDetector(chat, researchLog),
		Analyzer: research.NewAnalyzer(chat),
	}
	svc, err := service.New(a.logger.Named("service"), a.store, jobStore, sink, notifier, collab)
	if err != nil {
		return nil, fmt.Errorf("service init failed: %w", err)
	}
	return svc, nil
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.sched != nil {
		if err := a.sched.Start(a.cfg.Monitor.Schedule); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close()
}

// Close gracefully shuts down the application.
func (a *App) Close() error {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.publisher != nil {
		a.publisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
	return nil
}
