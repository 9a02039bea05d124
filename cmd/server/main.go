package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"photobooth-backend/internal/config"
	"photobooth-backend/internal/database"
	"photobooth-backend/internal/handlers"
	"photobooth-backend/internal/imaging"
	"photobooth-backend/internal/leonardo"
	"photobooth-backend/internal/logger"
	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/services"
	"photobooth-backend/internal/supabase"
)

func main() {
	// .env is optional, real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	leonardoClient := leonardo.NewClient(leonardo.Options{
		BaseURL:         cfg.LeonardoAPIBaseURL,
		APIKey:          cfg.LeonardoAPIKey,
		Logger:          log,
		PollInterval:    cfg.GenerationPollInterval,
		MaxPollAttempts: cfg.GenerationPollMaxAttempts,
	})

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatal("failed to initialize Supabase client", zap.Error(err))
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatal("failed to initialize storage client", zap.Error(err))
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize database client", zap.Error(err))
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to initialize migrator", zap.Error(err))
	}
	defer migrator.Close()
	if err := migrator.Run(); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migrations completed")

	compositor := imaging.NewCompositor(log)
	generationService := services.NewGenerationService(
		leonardoClient, dbClient, storageClient, compositor, realtimeClient, log)

	generateHandler := handlers.NewGenerateHandler(dbClient, generationService)
	photosHandler := handlers.NewPhotosHandler(dbClient)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/photos/generate", generateHandler.Generate)
	api.GET("/sessions/:session_id/photos", photosHandler.GetSessionPhotos)

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
