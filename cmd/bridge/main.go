package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rolegate/internal/application/verify"
	"github.com/rolegate/internal/config"
	"github.com/rolegate/internal/infrastructure/discord"
	"github.com/rolegate/internal/infrastructure/identity"
	"github.com/rolegate/internal/infrastructure/redisstore"
	"github.com/rolegate/internal/infrastructure/snapshot"
	snsinfra "github.com/rolegate/internal/infrastructure/sns"
	"github.com/rolegate/internal/store"
	transporthttp "github.com/rolegate/internal/transport/http"
	"github.com/rs/zerolog"
)

// exitBadConfig is the distinct status for unrecoverable startup errors
// (missing required credentials).
const exitBadConfig = 2

// sessionBackend is the full lifecycle the process drives on whichever
// session store is configured.
type sessionBackend interface {
	Load(ctx context.Context) error
	Create(ctx context.Context, subjectID, communityID string) (string, error)
	Redeem(ctx context.Context, subjectID, secret string) (string, error)
	SweepExpired(ctx context.Context) int
	Persist(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitBadConfig)
	}

	ctx := context.Background()

	sessions, settings := buildStores(cfg, logger)
	if err := sessions.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("session store load failed")
	}
	if err := settings.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("settings store load failed")
	}

	// Security alerts are optional; fall back gracefully when unconfigured.
	var alerts verify.Alerter
	if cfg.SNSTopicARN != "" {
		if p, err := snsinfra.NewPublisher(cfg); err == nil {
			alerts = p
		} else {
			logger.Warn().Err(err).Msg("SNS alerter not available")
		}
	}

	provider := buildProvider(cfg)

	platform, err := discord.NewClient(cfg.BotToken, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("discord client init failed")
	}

	verifySvc := verify.NewService(verify.Deps{
		Sessions: sessions,
		Settings: settings,
		Provider: provider,
		Platform: platform,
		Alerts:   alerts,
		Logger:   logger,
	})

	bot := discord.NewBot(platform, verifySvc, settings, logger)
	if err := platform.Open(); err != nil {
		logger.Fatal().Err(err).Msg("discord gateway connect failed")
	}
	if err := bot.Start(); err != nil {
		logger.Fatal().Err(err).Msg("bot command registration failed")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweeper := store.NewSweeper(sessions, cfg.SweepInterval, logger)
	go sweeper.Run(sweepCtx)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Verify: verifySvc,
		Logger: logger,
	})
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	stopSweep()
	if err := platform.Close(); err != nil {
		logger.Warn().Err(err).Msg("discord session close failed")
	}

	// Final best-effort persist of both documents.
	if err := sessions.Persist(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("final session persist failed")
	}
	if err := settings.Persist(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("final settings persist failed")
	}
	logger.Info().Msg("stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("app", "rolegate").
		Logger().
		Level(level)
	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

// buildStores wires the configured session backend and the settings store.
// Settings always snapshot to file or S3; Redis applies to sessions only.
func buildStores(cfg *config.Config, logger zerolog.Logger) (sessionBackend, *store.SettingsStore) {
	var sessionsSnap, settingsSnap snapshot.Backend

	switch cfg.StoreBackend {
	case config.BackendS3:
		client, err := snapshot.NewS3Client(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("S3 client init failed")
		}
		sessionsSnap = snapshot.NewS3(client, cfg.S3Bucket, cfg.S3SessionsKey)
		settingsSnap = snapshot.NewS3(client, cfg.S3Bucket, cfg.S3SettingsKey)
	default:
		sessionsSnap = snapshot.NewFile(cfg.SessionsFile)
		settingsSnap = snapshot.NewFile(cfg.SettingsFile)
	}

	settings := store.NewSettingsStore(settingsSnap, logger)

	if cfg.StoreBackend == config.BackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisstore.New(client, cfg.SessionWindow, logger), settings
	}
	return store.NewSessionStore(sessionsSnap, cfg.SessionWindow, logger), settings
}

func buildProvider(cfg *config.Config) identity.Provider {
	if cfg.IdentityProvider == config.ProviderGoogle {
		return identity.NewGoogle(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL, cfg.GoogleAudience)
	}
	return identity.NewDiscord(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL)
}
