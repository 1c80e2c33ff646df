package main

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"ilfen-assessment/internal/certificate"
	"ilfen-assessment/internal/config"
	"ilfen-assessment/internal/db"
	"ilfen-assessment/internal/email"
	apihttp "ilfen-assessment/internal/http"
	"ilfen-assessment/internal/repository"
	"ilfen-assessment/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	traitRepo := repository.NewPgTraitRepository(pool)
	registrationRepo := repository.NewPgRegistrationRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	resultRepo := repository.NewPgResultRepository(pool)

	renderer := certificate.NewRenderer(
		logger,
		cfg.MediaRoot,
		filepath.Join(cfg.StaticRoot, cfg.FontFile),
		certificate.DefaultLayouts(
			filepath.Join(cfg.StaticRoot, cfg.AdultTemplate),
			filepath.Join(cfg.StaticRoot, cfg.JuniorTemplate),
		),
	)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	traitCache := service.NewMemoryTraitConfigCache(cfg.TraitCacheTTL)
	finalizeGuard := service.NewMemoryFinalizeGuard()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory cache and guard", zap.Error(err))
		} else {
			traitCache = service.NewRedisTraitConfigCache(redisClient, cfg.TraitCacheTTL)
			finalizeGuard = service.NewRedisFinalizeGuard(redisClient, cfg.FinalizeLockTTL)
		}
		cancel()
		defer redisClient.Close()
	}

	tokenSvc := service.NewSessionTokenService(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	if cfg.SessionSecret == "" {
		logger.Warn("session token secret not configured")
	}

	testSvc := service.NewTestService(service.TestServiceDeps{
		Traits:        traitRepo,
		Registrations: registrationRepo,
		Sessions:      sessionRepo,
		Results:       resultRepo,
		Renderer:      renderer,
		Cache:         traitCache,
		Guard:         finalizeGuard,
		Notifier:      emailSender,
	}, logger)

	testHandler := apihttp.NewTestHandler(logger, testSvc, tokenSvc)
	router := apihttp.NewRouter(logger, testHandler, tokenSvc, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
