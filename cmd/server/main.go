package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/soaringjerry/Empatia/internal/api"
	"github.com/soaringjerry/Empatia/internal/cache"
	"github.com/soaringjerry/Empatia/internal/config"
	"github.com/soaringjerry/Empatia/internal/db"
	"github.com/soaringjerry/Empatia/internal/logger"
	"github.com/soaringjerry/Empatia/internal/metrics"
	"github.com/soaringjerry/Empatia/internal/middleware"
	"github.com/soaringjerry/Empatia/internal/services"
)

func main() {
	populateFlag := flag.Bool("populate", false, "insert demo responses when the store has fewer than 20")
	hashFlag := flag.String("hash-password", "", "print the bcrypt hash for EMPATIA_ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashFlag != "" {
		h, err := services.HashPassword(*hashFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.LogLevel)
	if err := run(cfg, log, *populateFlag); err != nil {
		log.Error(context.Background(), "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// openStore returns the configured backend, seeded with the catalog and schools,
// and a func that releases it.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (api.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn(ctx, "using in-memory storage; responses are lost on restart")
		return api.NewMemoryStore(db.DefaultQuestions(), db.DefaultSchools()), func() {}, nil
	}
	if cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	st, err := db.Open(ctx, cfg.SQLitePath, cfg.MigrationsDir, db.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	if err := st.Seed(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("seed: %w", err)
	}
	log.Info(ctx, "sqlite store ready", logger.String("path", cfg.SQLitePath))
	return st, func() {
		if err := st.Close(); err != nil {
			log.Warn(context.Background(), "close sqlite", logger.Error(err))
		}
	}, nil
}

func run(cfg *config.Config, log logger.Logger, populate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if populate {
		n, err := populateDemo(ctx, store, time.Now())
		if err != nil {
			return fmt.Errorf("populate: %w", err)
		}
		log.Info(ctx, "demo responses inserted", logger.Int("count", n))
	}

	statsCache := cache.NewStatsCache(cfg.RedisAddr, cfg.StatsCacheTTL)
	defer func() { _ = statsCache.Close() }()
	log.Info(ctx, "stats cache configured", logger.Bool("redis", cfg.RedisAddr != ""), logger.Any("ttl", cfg.StatsCacheTTL.String()))

	m := metrics.NewManager(metrics.WithRuntimeCollectors())
	auth := middleware.NewTokenAuth(cfg.JWTSecret)
	analytics := services.NewAnalyticsService(store,
		services.WithStatsCache(m.InstrumentStatsCache(statsCache)),
		services.WithAnalyticsLogger(log.Named("analytics")),
		services.WithLocation(loc),
		services.WithTimelineDays(cfg.TimelineDays),
	)
	responses := services.NewResponseService(store,
		services.WithSubmissionObserver(m),
		services.WithCacheInvalidator(statsCache),
		services.WithResponseLogger(log.Named("responses")),
	)
	admin := services.NewAdminAuthService(cfg.AdminPasswordHash, auth.Sign, cfg.AdminTokenTTL)
	if !admin.Enabled() {
		log.Warn(ctx, "admin password not configured; bulk clear is disabled")
	}

	router := api.NewRouter(api.Deps{
		Store:     store,
		Responses: responses,
		Analytics: analytics,
		Exporter:  services.NewExportService(store, analytics),
		Catalog:   services.NewCatalogService(store),
		Board:     services.NewBoardService(store),
		Admin:     admin,
		Auth:      auth,
		Metrics:   m,
		Log:       log,
		Build: api.BuildInfo{
			Commit:    os.Getenv("EMPATIA_COMMIT"),
			BuildTime: os.Getenv("EMPATIA_BUILD_TIME"),
		},
		StaticDir:   cfg.StaticDir,
		AssetMaxAge: cfg.StaticMaxAge,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "Empatia server listening", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
