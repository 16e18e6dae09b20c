package main

import (
	"context"
	"fmt"
	"os"

	"smartgate-service/internal/auth"
	"smartgate-service/internal/cache"
	"smartgate-service/internal/config"
	"smartgate-service/internal/db"
	"smartgate-service/internal/detect"
	"smartgate-service/internal/external"
	httphandler "smartgate-service/internal/http"
	"smartgate-service/internal/http/middleware"
	"smartgate-service/internal/logger"
	"smartgate-service/internal/service"
	"smartgate-service/internal/store"
	"smartgate-service/internal/store/gormstore"
	"smartgate-service/internal/store/memstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)
	ctx := context.Background()

	var st store.Store
	if cfg.DB.DSN == "" {
		appLogger.Info().Msg("no DB_DSN configured, running the in-memory store with demo data")
		mem := memstore.New()
		passwordHash, err := auth.HashPassword("password")
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to hash seed password")
		}
		if err := memstore.Seed(ctx, mem, passwordHash); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to seed demo data")
		}
		st = mem
	} else {
		database, err := db.New(cfg, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect database")
		}
		st = gormstore.New(database)
	}

	ch := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, appLogger)
	defer ch.Close()

	gateway := external.NewTouchNGoClient(external.TouchNGoConfig{
		BaseURL:    cfg.TouchNGo.BaseURL,
		MerchantID: cfg.TouchNGo.MerchantID,
		APIKey:     cfg.TouchNGo.APIKey,
		Timeout:    cfg.TouchNGo.Timeout,
	}, appLogger)
	detector := detect.NewMock()

	accessService := service.NewAccessService(st, ch, detector, appLogger)
	guestService := service.NewGuestService(st, ch, gateway, cfg.Currency, appLogger)
	walletService := service.NewWalletService(st, gateway, cfg.Currency, appLogger)
	parkingService := service.NewParkingService(st)
	reviewService := service.NewReviewService(st)
	adminService := service.NewAdminService(st)

	if err := adminService.EnsureGuestRate(ctx, cfg.GuestRate.BaseRate, cfg.GuestRate.PerMinuteRate); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to initialize guest rate")
	}

	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)
	accountService := service.NewAccountService(st, issuer, cfg.Currency)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(
		accessService,
		guestService,
		walletService,
		parkingService,
		reviewService,
		accountService,
		adminService,
		ch,
		cfg.RateLimit.Limit,
		cfg.RateLimit.Window,
		appLogger,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting smartgate service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
