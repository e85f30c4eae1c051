package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/review-pipeline/internal/api"
	"github.com/review-pipeline/internal/cache"
	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/database"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/service"
	"github.com/review-pipeline/internal/translation"
	"github.com/review-pipeline/internal/worker"
	"github.com/review-pipeline/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Local runs keep settings in .env; a missing file is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info().Msg("Starting review pipeline server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Fast key-value store; optional
	kv, err := cache.New(cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure redis")
	}
	if kv.Enabled() {
		if err := kv.Ping(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, rate limits will fail open until it recovers")
		}
	}

	var counter ratelimit.Counter
	if kv.Enabled() {
		counter = kv
	}
	limiter := ratelimit.New(counter, log)

	// Initialize repositories
	repos := repository.New(db)

	// Background work and translation
	pool := worker.New(cfg.Translation.Workers, log)
	engine, closeTranslator := newTranslationEngine(cfg, repos, pool, kv, log)
	defer closeTranslator()

	// Initialize services
	services := service.NewServices(repos, limiter, engine, cfg, log)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(services, cfg, log,
		api.HealthCheck{Name: "database", Required: true, Check: db.HealthCheck},
		api.HealthCheck{Name: "redis", Check: kv.Ping},
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight translations finish within the same deadline
	if err := pool.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("Background tasks cancelled at shutdown")
	}

	if err := kv.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis")
	}

	log.Info().Msg("Server exited gracefully")
}

// newTranslationEngine wires the translation engine. It returns a nil
// engine when translation is disabled. When the Google client cannot be
// created the engine still runs and copies source text, so the secondary
// locale exists and is picked up once credentials are fixed.
func newTranslationEngine(cfg *config.Config, repos *repository.Repositories, pool *worker.Pool, kv *cache.Client, log zerolog.Logger) (service.TranslationEngine, func()) {
	noop := func() {}
	if !cfg.Translation.Enabled {
		log.Warn().Msg("Translation disabled")
		return nil, noop
	}

	var translator translation.Translator
	closeFn := noop
	google, err := translation.NewGoogleTranslator(context.Background(), cfg.Translation, log)
	if err != nil {
		log.Warn().Err(err).Msg("Google Cloud Translation unavailable, translations will keep source text")
	} else {
		translator = google
		closeFn = func() {
			if err := google.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close translation client")
			}
		}
	}

	text := translation.NewTextService(
		translator,
		translation.NewCache(kv, cfg.Translation.CacheTTL, log),
		cfg.Translation.CallTimeout,
		log,
	)
	engine := translation.NewEngine(text, repos.Review, pool, translation.EngineConfig{
		TargetLocale:  cfg.Translation.TargetLocale,
		RunTimeout:    cfg.Translation.RunTimeout,
		FieldParallel: cfg.Translation.FieldParallel,
	}, log)
	return engine, closeFn
}
