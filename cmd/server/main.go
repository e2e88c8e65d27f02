package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
	"github.com/mosefak/medchat/internal/handlers"
	"github.com/mosefak/medchat/internal/i18n"
	"github.com/mosefak/medchat/internal/middleware"
	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/ai"
	"github.com/mosefak/medchat/internal/services/cache"
	"github.com/mosefak/medchat/internal/services/directory"
	"github.com/mosefak/medchat/internal/services/query"
	"github.com/mosefak/medchat/internal/services/retrieval"
	"github.com/mosefak/medchat/internal/store"
	"github.com/mosefak/medchat/internal/workflow"
	"github.com/mosefak/medchat/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting medchat server...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database pool
	db, err := query.OpenDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	// Thread store
	threadStore, err := store.NewManager(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize thread store")
	}
	if client := threadStore.GetRedisClient(); client != nil {
		defer client.Close()
	}

	metrics := middleware.NewMetrics()

	// Core services
	aiService := ai.NewOpenAI(&cfg.Model, log)
	cacheService := cache.NewCache(cfg, log)
	executor := query.NewExecutor(db, cacheService, metrics, log)
	dir := directory.NewDirectory(executor, cfg.Database.Name, log)

	retriever, err := retrieval.NewRetriever(&cfg.Knowledge, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load knowledge indexes")
	}

	// Seed the proper noun index from the database. A failed seed only
	// degrades spelling correction, so start regardless.
	seedProperNouns(ctx, retriever, dir, log)

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	rateLimiter := middleware.NewRateLimiter(cfg, log)

	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()

		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n, err := threadStore.Count(ctx); err == nil {
						metrics.SetActiveThreads(float64(n))
					}
				}
			}
		}()
	}

	engine := workflow.NewEngine(
		aiService,
		retriever,
		executor,
		dir,
		threadStore,
		localizer,
		metrics,
		log,
		cfg.Context.MaxMessages,
	)

	api := handlers.NewAPI(engine, rateLimiter, metrics, log, cfg.Server.RequestTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	cancel()
	log.Info("Server stopped")
}

// seedProperNouns fills the proper noun index with names read from the
// database so SQL generation can correct user spelling.
func seedProperNouns(ctx context.Context, retriever *retrieval.Retriever, dir *directory.Directory, log *logrus.Logger) {
	seedCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	identity := models.Identity{UserID: "system", Role: models.RoleAdmin}
	values := dir.ProperNouns(seedCtx, identity)
	if len(values) == 0 {
		log.Warn("No proper nouns loaded from database")
		return
	}

	retriever.Rebuild(retrieval.IndexProperNouns, values)
	log.WithField("values", len(values)).Info("Proper noun index seeded")
}
