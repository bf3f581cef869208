package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pharma-catalog/internal/ai"
	"pharma-catalog/internal/auth"
	"pharma-catalog/internal/cache"
	"pharma-catalog/internal/config"
	"pharma-catalog/internal/database"
	"pharma-catalog/internal/handlers"
	"pharma-catalog/internal/logger"
	"pharma-catalog/internal/repository"
	"pharma-catalog/internal/routes"
	"pharma-catalog/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewStderr().Fatal("load config", "error", err)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		logger.NewStderr().Fatal("init logger", "error", err)
	}
	defer log.Sync()

	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info("config loaded", "source", cfg.EnvSource, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Almacenamiento: Mongo si hay URI, memoria para desarrollo local
	var (
		products      repository.ProductStore
		announcements repository.AnnouncementStore
	)
	if cfg.UsesMemoryStore() {
		log.Warn("MONGO_URI not set, using in-memory store; data is lost on restart")
		products = repository.NewMemoryProductStore()
		announcements = repository.NewMemoryAnnouncementStore()
	} else {
		client, err := database.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal("connect mongo", "error", err)
		}
		defer database.Disconnect(client)

		db := client.Database(cfg.MongoDB)
		productRepo := repository.NewProductRepository(db.Collection("products"))
		if err := productRepo.EnsureIndexes(ctx); err != nil {
			log.Fatal("ensure indexes", "error", err)
		}
		products = productRepo
		announcements = repository.NewAnnouncementRepository(db.Collection("announcements"))
		log.Info("mongo connected", "db", cfg.MongoDB)
	}

	// Caché: Redis si está configurado, si no en memoria
	var store cache.Store
	if cfg.RedisAddr != "" {
		rc, err := cache.DialRedis(ctx, cfg.RedisAddr, "pharma:", cfg.CacheTTL)
		if err != nil {
			log.Fatal("connect redis", "error", err)
		}
		store = rc
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	} else {
		store = cache.NewMemory(cfg.CacheTTL, time.Minute)
	}
	defer store.Close()

	var uploader storage.Uploader
	if cdn, err := storage.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, "products"); err == nil {
		uploader = cdn
	} else {
		log.Warn("image uploads disabled", "reason", err)
	}

	if cfg.OpenAIKey == "" {
		log.Warn("OPENAI_API_KEY not set, AI drafts will fail")
	}
	analyzer := ai.NewAnalyzer(ai.NewRequester(ai.Config{
		BaseURL:   cfg.OpenAIBaseURL,
		APIKey:    cfg.OpenAIKey,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.AIMaxTokens,
		Timeout:   cfg.AITimeout,
	}, nil), log.With("component", "ai"))

	manager := auth.NewManager(cfg.JWTSecret, cfg.AdminPassword, auth.DefaultTokenTTL)
	if cfg.JWTSecret == "" || cfg.AdminPassword == "" {
		log.Warn("JWT_SECRET or ADMIN_PASSWORD not set, admin routes are locked")
	}

	router := routes.NewRouter(routes.Deps{
		Products: handlers.NewProductHandler(products, store, log, handlers.ProductOptions{
			BaseURL:        cfg.BaseURL,
			CacheTTL:       cfg.CacheTTL,
			Uploader:       uploader,
			MaxUploadBytes: cfg.UploadMaxBytes,
		}),
		Announcements: handlers.NewAnnouncementHandler(announcements, log),
		AI:            handlers.NewAIHandler(analyzer),
		Auth:          handlers.NewAuthHandler(manager, log),
		Manager:       manager,
		Health:        handlers.Health(map[string]handlers.Pinger{"store": products, "cache": store}),
		Log:           log,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
