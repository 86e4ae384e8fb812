package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/offerslab/offers-api/internal/config"
	"github.com/offerslab/offers-api/internal/db"
	httprouter "github.com/offerslab/offers-api/internal/http"
	"github.com/offerslab/offers-api/internal/http/handlers"
	"github.com/offerslab/offers-api/internal/identity"
	"github.com/offerslab/offers-api/internal/repo"
	"github.com/offerslab/offers-api/internal/sms"
)

func main() {
	// Env vars override anything loaded from .env
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.LogLevel)

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	userRepo := repo.NewUserRepo(database)
	refreshRepo := repo.NewRefreshRepo(database)
	itemRepo := repo.NewItemRepo(database)

	sender := newSender(cfg)
	tokens := identity.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	provider := identity.NewService(tokens, userRepo, refreshRepo, sender, identity.Options{
		OTPTTL:         cfg.OTPTTL,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		DevEcho:        cfg.DevEcho,
		RefreshTTL:     cfg.RefreshTokenTTL,
	})
	defer provider.Close()

	var google *identity.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google, err = identity.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize google verifier")
		}
		log.Info().Msg("google sign-in enabled")
	}

	authHandler := handlers.NewAuthHandler(provider, provider, google, handlers.RateLimits{
		Window: cfg.RateLimitWindow,
		Start:  cfg.StartPerWindow,
		Verify: cfg.VerifyPerWindow,
	})
	itemsHandler := handlers.NewItemsHandler(itemRepo)
	router := httprouter.NewRouter(authHandler, itemsHandler, tokens, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Bool("dev_echo", cfg.DevEcho).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func newSender(cfg *config.Config) sms.Sender {
	if cfg.SMSProvider == "twilio" {
		return sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	}
	return sms.NewLogSender()
}
