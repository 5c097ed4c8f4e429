package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/artgallery/server/internal/config"
	"github.com/artgallery/server/internal/handlers"
	"github.com/artgallery/server/internal/observability"
	"github.com/artgallery/server/internal/repository"
	"github.com/artgallery/server/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		observability.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry
	telemetry, err := observability.Initialize(ctx, observability.NewConfig(observability.DefaultServiceName, serviceVersion))
	if err != nil {
		observability.Warnf("Telemetry unavailable: %v", err)
	}

	// Storage backend and repository
	kv, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		observability.Errorf("Failed to initialize %s storage: %v", cfg.Storage.Driver, err)
		os.Exit(1)
	}
	defer closeStore()
	stateRepo := repository.NewGalleryStateRepository(kv, cfg.Storage.KeyPrefix)

	// Services
	galleryMetrics, err := observability.NewGalleryMetrics()
	if err != nil {
		observability.Warnf("Gallery metrics unavailable: %v", err)
	}

	fetcher := services.NewMultiCatalogFetcher(catalogSources(cfg.Catalog)...)
	observability.Infof("Catalog sources: %v", fetcher.Sources())

	identity := services.NewIdentityService(stateRepo)
	identity.Load(ctx)

	themeService := services.NewThemeService(stateRepo)
	hub := services.NewWebSocketHub()
	go hub.Run(ctx)

	store := services.NewGalleryStore(stateRepo, fetcher, services.GalleryStoreOptions{
		PageSize:     cfg.Catalog.PageSize,
		FetchTimeout: cfg.Catalog.FetchTimeout(),
		Metrics:      galleryMetrics,
	})
	store.Subscribe(services.NewSessionObserver(identity))
	store.Subscribe(services.NewHubObserver(hub))
	store.Subscribe(services.NewLoggingObserver())

	// Persisted state is adopted before serving; the first page is fetched in the background
	if empty, _ := store.Load(ctx); empty {
		go func() {
			if _, err := store.FetchMore(ctx); err != nil {
				observability.Warnf("Initial catalog fetch failed: %v", err)
			}
		}()
	}

	scheduler, err := services.SchedulePrefetch(ctx, cfg.Prefetch.Schedule, store)
	if err != nil {
		observability.Errorf("Failed to schedule prefetch: %v", err)
		os.Exit(1)
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observability.TracingMiddleware(observability.DefaultServiceName))
	if httpMetrics, err := observability.NewHTTPMetrics(); err != nil {
		observability.Warnf("HTTP metrics unavailable: %v", err)
	} else {
		r.Use(observability.MetricsMiddleware(httpMetrics))
	}

	// Routes
	handlers.Mount(r, handlers.Routes{
		Health:    handlers.NewHealthHandler(),
		Gallery:   handlers.NewGalleryHandler(store),
		Auth:      handlers.NewAuthHandler(identity, store),
		Theme:     handlers.NewThemeHandler(themeService),
		WebSocket: handlers.NewWebSocketHandler(hub),
		Session:   identity,
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Infof("Art gallery server starting on %s", cfg.ServerAddress)
		observability.Infof("Storage: %s, page size: %d", cfg.Storage.Driver, cfg.Catalog.PageSize)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stops the hub, the prefetch schedule and any in-flight fetch
	stop()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.Errorf("Server forced to shutdown: %v", err)
	}
	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			observability.Warnf("Telemetry shutdown: %v", err)
		}
	}

	observability.Info("Server stopped")
}

// openStore opens the configured key-value backend and returns its closer
func openStore(ctx context.Context, cfg config.Storage) (repository.KeyValueStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		observability.Info("Using PostgreSQL database")
		db, err := repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLKeyValueStore(db, "postgresql"), func() { db.Close() }, nil

	case config.DriverRedis:
		observability.Infof("Using Redis at %s", cfg.RedisAddr)
		store := repository.NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case config.DriverMemory:
		observability.Warn("Using in-memory storage, state is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil

	default:
		observability.Info("Using SQLite database")
		db, err := repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLKeyValueStore(db, "sqlite"), func() { db.Close() }, nil
	}
}

// catalogSources builds the enabled upstream catalogs in priority order
func catalogSources(cfg config.Catalog) []services.CatalogSource {
	var sources []services.CatalogSource
	if cfg.Met.Enabled {
		client := &http.Client{Timeout: cfg.FetchTimeout()}
		sources = append(sources, services.NewMetCatalog(cfg.Met.BaseURL, cfg.Met.Query, cfg.Met.Concurrency, client))
	}
	if cfg.Harvard.Enabled {
		sources = append(sources, services.NewHarvardCatalog())
	}
	return sources
}
