package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"labelsense/internal/config"
	"labelsense/internal/database"
	"labelsense/internal/handlers"
	"labelsense/internal/jobs"
	"labelsense/internal/knowledge"
	"labelsense/internal/logging"
	"labelsense/internal/middleware"
	"labelsense/internal/orchestrator"
	"labelsense/internal/parser"
	"labelsense/internal/scoring"
	"labelsense/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting LabelSense Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()

	// Database and store
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	store := database.NewStore(db, database.RetentionPolicy{
		database.CollectionScans:          cfg.ScanRetention,
		database.CollectionSyncQueue:      cfg.SyncQueueRetention,
		database.CollectionKnowledgeCache: cfg.KnowledgeCacheRetention,
	}, cfg.SyncRetryCap)

	// Bundled regulatory knowledge base
	base, err := knowledge.New()
	if err != nil {
		log.Fatalf("❌ Failed to load knowledge base: %v", err)
	}
	log.Printf("📚 Knowledge base loaded: %d entries (version %s)", base.Len(), base.Version())

	// External capability sources
	registry, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("❌ Failed to load source registry: %v", err)
	}
	log.Printf("🔌 Source registry loaded: %d sources", len(registry.Sources))

	// Pipeline stages
	metrics := services.InitMetrics()
	labelParser := parser.New(base)
	orch := orchestrator.New(registry, base, cfg)
	orch.UsePersistentCache(store)
	engine := scoring.New()

	connectivity := services.NewConnectivityService()

	var target services.SyncTarget
	if cfg.SyncEndpoint != "" {
		target = services.NewHTTPSyncTarget(cfg.SyncEndpoint)
		log.Printf("🔄 Sync endpoint configured: %s", cfg.SyncEndpoint)
	} else {
		log.Println("🔄 No sync endpoint configured, queue drains locally")
	}
	syncService := services.NewSyncService(store, connectivity, target, metrics)

	analysis := services.NewAnalysisService(
		labelParser, orch, engine, base, store, connectivity, syncService, metrics)

	// Replay the sync queue on every offline-to-online transition
	connectivity.OnOnline(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := syncService.Replay(ctx); err != nil {
			log.Printf("⚠️ Sync replay after reconnect failed: %v", err)
		}
	})

	// Background jobs
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if err := scheduler.Register(jobs.NewRetentionSweepJob(store, metrics, cfg.SweepInterval)); err != nil {
		log.Fatalf("❌ Failed to register retention sweep: %v", err)
	}
	if err := scheduler.Register(jobs.NewSyncReplayJob(syncService, cfg.ReplayInterval)); err != nil {
		log.Fatalf("❌ Failed to register sync replay: %v", err)
	}
	scheduler.Start()

	// Startup sweep; the persisted last-swept marker makes this a no-op
	// when the previous run is still fresh
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := scheduler.RunNow(ctx, "retention-sweep"); err != nil {
			log.Printf("⚠️ Startup retention sweep failed: %v", err)
		}
	}()

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, connectivity)
	analyzeHandler := handlers.NewAnalyzeHandler(analysis)
	historyHandler := handlers.NewHistoryHandler(analysis)
	profileHandler := handlers.NewProfileHandler(store)
	knowledgeHandler := handlers.NewKnowledgeHandler(base)
	statsHandler := handlers.NewStatsHandler(store, syncService, scheduler, base, connectivity)
	connectivityHandler := handlers.NewConnectivityHandler(connectivity, syncService)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LabelSense v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    1 * 1024 * 1024, // label text never legitimately exceeds 1MB
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("labelsense")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	rateLimitConfig := middleware.LoadRateLimitConfig()

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))
	readLimiter := middleware.ReadRateLimiter(rateLimitConfig)

	api.Post("/analyze", middleware.AnalyzeRateLimiter(rateLimitConfig), analyzeHandler.Handle)

	api.Get("/history", readLimiter, historyHandler.List)
	api.Get("/history/:id", readLimiter, historyHandler.Get)
	api.Delete("/history/:id", historyHandler.Delete)

	api.Get("/profile", profileHandler.Get)
	api.Put("/profile", profileHandler.Update)

	// Static knowledge routes before the :id wildcard
	api.Get("/knowledge/controversial", readLimiter, knowledgeHandler.Controversial)
	api.Get("/knowledge/regulatory-differences", readLimiter, knowledgeHandler.RegulatoryDifferences)
	api.Get("/knowledge", readLimiter, knowledgeHandler.List)
	api.Get("/knowledge/:id", readLimiter, knowledgeHandler.Get)

	api.Get("/stats", readLimiter, statsHandler.Handle)
	api.Post("/connectivity", connectivityHandler.Handle)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down...")
		scheduler.Stop()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
		if err := db.Close(); err != nil {
			log.Printf("⚠️ Error closing database: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
