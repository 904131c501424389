package main

import (
	"os"

	"codenook/internal/config"
	"codenook/internal/db"
	"codenook/internal/logger"
	"codenook/internal/router"
	"codenook/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, found := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	logger.Set(log)

	if !found {
		log.Info("no .env file found, reading configuration from the environment")
	}
	gin.SetMode(cfg.GinMode)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if !cfg.Google.Enabled() {
		log.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, Google sign-in disabled")
	}
	if !cfg.Cloudinary.Enabled() {
		log.Warn("Cloudinary credentials not set, image uploads disabled")
	}
	if len(cfg.AdminEmails) == 0 {
		log.Warn("ADMIN_EMAILS is empty, nobody can write posts")
	}

	r, err := router.New(cfg, conn, services.NewCloudinaryUploader(cfg.Cloudinary))
	if err != nil {
		log.Fatal("failed to build router", zap.Error(err))
	}

	log.Info("codenook server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
