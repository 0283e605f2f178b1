package main

import (
	"context"
	"fmt"
	"os"

	"gate-service/internal/auth"
	"gate-service/internal/client"
	"gate-service/internal/config"
	"gate-service/internal/db"
	httphandler "gate-service/internal/http"
	"gate-service/internal/http/middleware"
	"gate-service/internal/logger"
	"gate-service/internal/repository"
	"gate-service/internal/service"
	"gate-service/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	userRepo := repository.NewUserRepository(database)
	entryRepo := repository.NewEntryRepository(database)

	tokenIssuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.TokenTTL)
	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	ocrClient := client.NewOCRClient(cfg, appLogger)
	uploadSaver := upload.NewSaver(cfg.Upload.Dir, cfg.Upload.MaxBytes)

	authService := service.NewAuthService(userRepo, tokenIssuer, appLogger)
	entryService := service.NewEntryService(entryRepo, ocrClient, appLogger)
	reportService := service.NewReportService(entryRepo)

	if err := authService.SeedAdmin(context.Background(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to seed admin account")
	}

	handler := httphandler.NewHandler(
		authService,
		entryService,
		reportService,
		uploadSaver,
		cfg.Environment,
		cfg.Auth.TokenTTL,
		appLogger,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.Upload.Dir)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting gate service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
