package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/skillbridge/skillbridge/internal/api"
	"github.com/skillbridge/skillbridge/internal/api/ws"
	"github.com/skillbridge/skillbridge/internal/config"
	"github.com/skillbridge/skillbridge/internal/llm"
	"github.com/skillbridge/skillbridge/internal/llm/groq"
	"github.com/skillbridge/skillbridge/internal/observability"
	"github.com/skillbridge/skillbridge/internal/ratelimit"
	"github.com/skillbridge/skillbridge/internal/statsync"
	"github.com/skillbridge/skillbridge/internal/storage"
	pgstore "github.com/skillbridge/skillbridge/internal/storage/postgres"
	sqlitestore "github.com/skillbridge/skillbridge/internal/storage/sqlite"
	"github.com/skillbridge/skillbridge/internal/suggest"
)

var (
	serveConfigPath string
	serveListenAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	// Register flags on both root and serve so that
	// `skillbridge --config path` and `skillbridge serve --config path` both work.
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveConfigPath, "config", config.DefaultConfigPath(), "path to config file")
		cmd.Flags().StringVar(&serveListenAddr, "listen", "", "override HTTP listen address (e.g. :8080)")
	}
}

// runServe starts the SkillBridge API server.
func runServe(_ *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := loadConfig(goutils.Env("SKILLBRIDGE_CONFIG", serveConfigPath), logger)
	if err != nil {
		return err
	}

	// Apply CLI overrides.
	if serveListenAddr != "" {
		if cfg.HTTP == nil {
			cfg.HTTP = &config.HTTPConfig{}
		}
		cfg.HTTP.ListenAddr = serveListenAddr
	}

	logger.Info("starting skillbridge",
		slog.String("addr", cfg.HTTP.Addr()),
		slog.String("storage", cfg.StorageDriverName()),
	)

	st, err := initStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	// Signal-aware context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Shutdown(shutdownCtx)
	}()

	provider := newLLMProvider(cfg, logger)
	suggester := suggest.NewService(provider, logger, suggest.WithRecorder(obs.MetricsOrNil()))

	limits := cfg.HTTP.Limits()
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: limits.RequestsPerMinute,
		BurstSize:         limits.BurstSize,
	})

	health := observability.NewHealthChecker(logger)
	health.AddCheck("database", st.Ping)

	// Stats refresher (optional).
	if cfg.StatsSync != nil && cfg.StatsSync.Enabled {
		refresher := statsync.New(st.Profiles(), st.Challenges(), st.Ratings(), logger, obs.MetricsOrNil())
		stopSync, err := refresher.Start(ctx, cfg.StatsSync.CronSpec())
		if err != nil {
			return fmt.Errorf("starting stats refresher: %w", err)
		}
		defer stopSync()
		logger.Info("stats refresher started", slog.String("schedule", cfg.StatsSync.CronSpec()))
	}

	// Challenge chat hub, mounted on the API server's mux.
	hub := ws.NewHub(st.Challenges(), st.Messages(), logger, obs.MetricsOrNil())

	apiCfg := api.Config{
		ListenAddr:    cfg.HTTP.Addr(),
		EnableDocs:    cfg.HTTP.DocsEnabled(),
		HealthChecker: health,
	}
	if cfg.HTTP != nil {
		apiCfg.MaxRequestSize = cfg.HTTP.MaxRequestSizeBytes
	}
	if obs != nil {
		apiCfg.Metrics = obs.Metrics
		if obs.Metrics != nil {
			apiCfg.MetricsRegistry = obs.Metrics.Registry
		}
		if obs.Tracer != nil {
			apiCfg.Tracer = obs.Tracer.Tracer()
		}
		if cfg.Observability != nil && cfg.Observability.Metrics != nil {
			apiCfg.MetricsPath = cfg.Observability.Metrics.Path
		}
	}

	srv := api.NewServer(apiCfg, st, suggester, limiter, logger).
		WithHandler("/ws/challenges", hub.Handler())

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start(ctx)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http api: %w", err)
		}
	}

	// Graceful shutdown with deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("stopping http api", slog.String("error", err.Error()))
	}

	return nil
}

// loadConfig reads the config file, falling back to the zero-config defaults
// when the file does not exist.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("no config file found, using defaults", slog.String("path", path))
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded", slog.String("path", path))
	return cfg, nil
}

// initStore opens the configured storage backend.
func initStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StorageDriverName() {
	case storage.DriverPostgres:
		pg := cfg.Storage.Postgres
		db, err := pgstore.Open(pgstore.Config{
			DSN:             pg.DSN,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(pg.ConnMaxLifetimeS) * time.Second,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return pgstore.NewStore(db, logger), nil
	default:
		scfg := sqlitestore.Config{Path: cfg.DatabasePath()}
		if cfg.Storage != nil && cfg.Storage.SQLite != nil {
			if cfg.Storage.SQLite.Path != "" {
				scfg.Path = cfg.Storage.SQLite.Path
			}
			scfg.JournalMode = cfg.Storage.SQLite.JournalMode
		}
		st, err := sqlitestore.Open(scfg, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return st, nil
	}
}

// newLLMProvider builds the configured provider chain for the suggestion
// pipeline. Returns nil when no usable provider is configured; the suggestion
// service then answers with its deterministic matcher.
func newLLMProvider(cfg *config.Config, logger *slog.Logger) llm.Provider {
	names := append([]string{cfg.DefaultProvider()}, cfg.Providers.Fallback...)

	var providers []llm.Provider
	for _, name := range names {
		p := buildProvider(name, cfg, logger)
		if p == nil {
			logger.Warn("llm provider not configured, skipping", slog.String("provider", name))
			continue
		}
		providers = append(providers, p)
	}

	switch len(providers) {
	case 0:
		logger.Info("no llm provider configured, suggestions use the deterministic matcher")
		return nil
	case 1:
		return providers[0]
	default:
		return llm.NewFallbackProvider(providers, logger)
	}
}

// buildProvider creates a single named provider, or nil when its credentials
// are missing. Groq, OpenAI, and Ollama all speak the same chat completions
// protocol, so one client serves all three.
func buildProvider(name string, cfg *config.Config, logger *slog.Logger) llm.Provider {
	switch name {
	case "groq":
		g := cfg.Providers.Groq
		if g.APIKey == "" {
			return nil
		}
		var opts []groq.Option
		if g.BaseURL != "" {
			opts = append(opts, groq.WithBaseURL(g.BaseURL))
		}
		return groq.NewClient(g.APIKey, g.GroqModel(), logger, opts...)
	case "openai":
		o := cfg.Providers.OpenAI
		if o.APIKey == "" {
			return nil
		}
		base := o.BaseURL
		if base == "" {
			base = "https://api.openai.com"
		}
		model := o.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return groq.NewClient(o.APIKey, model, logger,
			groq.WithBaseURL(base), groq.WithName("openai"))
	case "ollama":
		ol := cfg.Providers.Ollama
		if ol.Model == "" {
			return nil
		}
		base := ol.BaseURL
		if base == "" {
			base = "http://localhost:11434"
		}
		return groq.NewClient("", ol.Model, logger,
			groq.WithBaseURL(base), groq.WithName("ollama"))
	default:
		return nil
	}
}
