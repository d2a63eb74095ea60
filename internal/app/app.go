package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/LeLongFintech/GULLIVER/internal/config"
	apierrors "github.com/LeLongFintech/GULLIVER/internal/errors"
	"github.com/LeLongFintech/GULLIVER/internal/fundamentals"
	custommw "github.com/LeLongFintech/GULLIVER/internal/middleware"
	"github.com/LeLongFintech/GULLIVER/internal/risk"
	"github.com/LeLongFintech/GULLIVER/internal/services"
	handlers "github.com/LeLongFintech/GULLIVER/internal/transport/http"
)

const (
	// Version identifies the build in startup logs and health output.
	Version = "1.0.0"
	AppName = "GULLIVER Risk Service"
)

// Application is the composed service: configuration, the built risk
// engine, the optional fundamentals analyzer, and the HTTP server.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router *chi.Mux
	Server *http.Server

	Engine   *risk.Engine
	Risk     *services.RiskService
	Diagnose *services.DiagnoseService
}

// NewApplication loads configuration, builds the risk engine from the
// configured sources, and assembles the HTTP surface. The engine build
// is eager: a data problem surfaces here, at startup, not on the first
// request.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	logger.InfoContext(ctx, "application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("data_dir", cfg.Data.Dir),
	)

	cutoff, err := cfg.TrainCutoff()
	if err != nil {
		return nil, err
	}

	engine, err := risk.Build(ctx, risk.Config{
		PricesPath:       cfg.PricesPath(),
		SharesPath:       cfg.SharesPath(),
		TrainCutoff:      cutoff,
		UniverseQuantile: cfg.Risk.UniverseQuantile,
		Model: risk.ModelConfig{
			Trees:    cfg.Risk.Trees,
			LeafSize: cfg.Risk.LeafSize,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build risk engine: %w", err)
	}

	riskService := services.NewRiskService(engine, cfg.Risk.AlertThreshold, logger)

	// Fundamentals are optional: the score API stays up without them.
	var diagnoseService *services.DiagnoseService
	analyzer, err := fundamentals.NewAnalyzer(ctx, cfg.Data.Dir, logger)
	if err != nil {
		logger.WarnContext(ctx, "fundamentals unavailable, diagnose endpoint disabled",
			slog.String("error", err.Error()))
	} else {
		diagnoseService = services.NewDiagnoseService(analyzer, logger)
	}

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Engine:   engine,
		Risk:     riskService,
		Diagnose: diagnoseService,
	}
	app.Router = app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// NewLogger builds the application slog.Logger from logging config.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %q", cfg.Format)
	}
	return slog.New(handler), nil
}

func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.CORS(custommw.CORSConfig{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	riskHandler := handlers.NewRiskHandler(a.Risk, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/risk", riskHandler.Routes())
		r.Get("/healthz", riskHandler.GetHealth)

		if a.Diagnose != nil {
			diagnoseHandler := handlers.NewDiagnoseHandler(a.Diagnose, a.Logger, errorHandler)
			r.Mount("/ai", diagnoseHandler.Routes())
		}
	})

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled
// or SIGINT/SIGTERM arrives, then shuts down gracefully within the
// configured timeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "http server listening",
			slog.String("addr", a.Server.Addr),
			slog.Int("score_rows", a.Engine.Rows()),
		)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

// Uptime reports time since the engine finished building.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.Engine.BuiltAt())
}
