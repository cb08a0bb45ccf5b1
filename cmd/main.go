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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/tilewise/scrabble-director/config"
	"github.com/tilewise/scrabble-director/db"
	"github.com/tilewise/scrabble-director/handlers"
	"github.com/tilewise/scrabble-director/pairings"
	"github.com/tilewise/scrabble-director/repositories"
	api "github.com/tilewise/scrabble-director/routes"
	"github.com/tilewise/scrabble-director/services"
	"github.com/tilewise/scrabble-director/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	wsHub := pairings.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	ruleRepo := repositories.NewPostgresPairingRuleRepository(dbConn)
	snapshotRepo := repositories.NewPostgresSnapshotRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	rosterService := services.NewRosterService(playerRepo, tournamentRepo)
	ruleService := services.NewRuleService(dbConn, ruleRepo, tournamentRepo)
	pairingService := services.NewPairingService(
		dbConn,
		tournamentRepo,
		playerRepo,
		matchRepo,
		ruleRepo,
		snapshotRepo,
		wsHub,
		logger,
	)
	tournamentService := services.NewTournamentService(tournamentRepo, playerRepo, matchRepo, uploader, pairingService)
	standingsService := services.NewStandingsService(tournamentRepo, playerRepo, matchRepo, snapshotRepo, logger)
	matchService := services.NewMatchService(
		matchRepo,
		tournamentRepo,
		playerRepo,
		snapshotRepo,
		pairingService,
		wsHub,
		logger,
	)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	playerHandler := handlers.NewPlayerHandler(rosterService)
	matchHandler := handlers.NewMatchHandler(matchService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	pairingHandler := handlers.NewPairingHandler(pairingService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		playerHandler,
		matchHandler,
		ruleHandler,
		standingsHandler,
		pairingHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
