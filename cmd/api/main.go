package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/casetrack/internal/api"
	"github.com/your-org/casetrack/internal/api/ws"
	"github.com/your-org/casetrack/internal/config"
	"github.com/your-org/casetrack/internal/models"
	"github.com/your-org/casetrack/internal/observability"
	"github.com/your-org/casetrack/internal/queue"
	"github.com/your-org/casetrack/internal/storage"
	"github.com/your-org/casetrack/internal/textgen"
	"github.com/your-org/casetrack/internal/workflow"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting casetrack API service", "port", cfg.Server.Port, "db_driver", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("flush traces", "error", err)
		}
	}()

	// Case store
	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("open case store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Text generation. Without credentials every call degrades softly.
	var provider textgen.Provider
	if cfg.GenAI.APIKey == "" {
		slog.Warn("no text provider credentials, generated texts will carry [LLM ERROR]")
	} else {
		gp, err := textgen.NewGeminiProvider(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
		if err != nil {
			slog.Warn("text provider init failed, generation disabled", "error", err)
		} else {
			provider = gp
			slog.Info("text provider ready", "model", gp.Model())
		}
	}
	gen := textgen.NewClient(provider, cfg.GenAI.Timeout, textgen.Params{
		Temperature: cfg.GenAI.Temperature,
		MaxTokens:   cfg.GenAI.MaxOutputTokens,
	})

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Case events go through NATS when configured, straight to the hub otherwise.
	var notifier workflow.Notifier = hub
	var producer *queue.Producer
	if cfg.NATS.URL != "" {
		producer, err = queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}
		notifier = producer
		go queue.WatchBacklog(ctx, producer, 15*time.Second, observability.CasesBacklog)

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeEvents(ctx, "api-case-events", func(_ context.Context, evt models.CaseEvent) error {
			hub.BroadcastEvent(evt)
			return nil
		})
		if err != nil {
			slog.Warn("start event consumer", "error", err)
		}
	} else {
		slog.Info("nats disabled, case events delivered to websocket clients directly")
	}

	// Photo storage
	var minioStore *storage.MinIOStore
	if cfg.MinIO.Endpoint != "" {
		minioStore, err = storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
	} else {
		slog.Info("minio disabled, photo endpoints unavailable")
	}

	engine := workflow.NewEngine(store, gen, notifier)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		Engine:   engine,
		MinIO:    minioStore,
		Producer: producer,
		Hub:      hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*cfg.GenAI.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	cancel()

	slog.Info("API server stopped")
}

// openStore connects the configured backend and applies the schema.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		s, err := storage.NewPostgresStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
