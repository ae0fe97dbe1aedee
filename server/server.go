package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Musga/cache"
	"Musga/config"
	"Musga/core/audio"
	"Musga/core/auth"
	"Musga/core/catalog"
	"Musga/core/identity"
	"Musga/core/ledger"
	"Musga/core/payment"
	"Musga/db"
	"Musga/logger"
	"Musga/model"
	"Musga/repository"
	"Musga/storage"

	"github.com/gorilla/mux"
)

// Start wires dependencies, registers routes and runs the HTTP server until
// interrupted.
func Start() error {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
	defer logger.Sync()

	if err := db.ConnectDB(cfg); err != nil {
		return err
	}
	if err := db.InitDB(); err != nil {
		return err
	}
	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.Transaction{}); err != nil {
		return err
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		return err
	}
	defer cache.CloseRedis()

	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			return err
		}
	}

	for _, dir := range []string{cfg.UploadDir, cfg.PreviewDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	vocalRepo := repository.NewMySQLVocalRepository(db.DB)
	txRepo := repository.NewGormTransactionRepository(db.GormDB)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	identitySvc := identity.NewService(userRepo, tokens)

	var catalogSvc *catalog.Service
	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath, cfg.PreviewSeconds, cfg.PreviewBitrate)
	pipeline := audio.NewPipeline(
		processor,
		time.Duration(cfg.FFmpegTimeout)*time.Second,
		2,
		func(res audio.Result) {
			catalogSvc.CompleteProcessing(res)
			if res.Err == nil && cfg.MinioEnabled {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := storage.MirrorPreview(ctx, cfg.MinioBucket, res.PreviewPath); err != nil {
					logger.Warn("failed to mirror preview", logger.ErrorField(err))
				}
			}
		},
	)
	catalogSvc = catalog.NewService(vocalRepo, pipeline, cfg.PreviewDir)

	var gateway payment.Gateway
	if cfg.StripeAPIKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeAPIKey)
		logger.Info("using Stripe payment gateway")
	} else {
		gateway = payment.NewFakeGateway()
		logger.Info("using fake payment gateway")
	}

	locker := cache.NewPurchaseLocker(cache.RedisClient)
	ledgerSvc := ledger.NewService(txRepo, vocalRepo, userRepo, gateway, locker, cfg.PlatformFeeRate)

	h := NewAPIHandler(identitySvc, catalogSvc, ledgerSvc, cfg)

	api := mux.NewRouter()

	// Identity
	api.HandleFunc("/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/profile", h.AuthMiddleware(h.ProfileHandler)).Methods(http.MethodGet)
	api.HandleFunc("/auth/verify", h.AuthMiddleware(h.VerifyHandler)).Methods(http.MethodGet)

	// Catalog
	api.HandleFunc("/vocals/upload", h.RequireRole(model.RoleSinger, h.UploadVocalHandler)).Methods(http.MethodPost)
	api.HandleFunc("/vocals", h.SearchVocalsHandler).Methods(http.MethodGet)
	api.HandleFunc("/vocals/my-vocals", h.RequireRole(model.RoleSinger, h.MyVocalsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/vocals/{id:[0-9]+}", h.GetVocalHandler).Methods(http.MethodGet)
	api.HandleFunc("/vocals/{id:[0-9]+}/preview", h.PreviewHandler).Methods(http.MethodGet)
	api.HandleFunc("/vocals/{id:[0-9]+}", h.RequireRole(model.RoleSinger, h.UpdateVocalHandler)).Methods(http.MethodPatch)
	api.HandleFunc("/vocals/{id:[0-9]+}", h.RequireRole(model.RoleSinger, h.DeleteVocalHandler)).Methods(http.MethodDelete)

	// Ledger
	api.HandleFunc("/payments/create-payment-intent", h.AuthMiddleware(h.CreatePaymentIntentHandler)).Methods(http.MethodPost)
	api.HandleFunc("/payments/confirm-payment/{ref}", h.AuthMiddleware(h.ConfirmPaymentHandler)).Methods(http.MethodPost)
	api.HandleFunc("/payments/purchases", h.AuthMiddleware(h.PurchasesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/payments/sales", h.AuthMiddleware(h.SalesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/payments/earnings", h.AuthMiddleware(h.EarningsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/payments/download/{trackId:[0-9]+}", h.AuthMiddleware(h.DownloadHandler)).Methods(http.MethodGet)

	handler := corsMiddleware(cfg.CORSOrigins, api)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}

	// Let queued asset jobs finish before the process exits.
	pipeline.Shutdown()

	logger.Info("server stopped")
	return nil
}

// corsMiddleware applies an origin allowlist; "*" in the configured origins
// opens it up entirely.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
