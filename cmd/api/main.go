package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wellcare-clinic/clinicops/cmd/mainconfig"
	"github.com/wellcare-clinic/clinicops/internal/api/router"
	"github.com/wellcare-clinic/clinicops/internal/appointments"
	"github.com/wellcare-clinic/clinicops/internal/compliance"
	appconfig "github.com/wellcare-clinic/clinicops/internal/config"
	"github.com/wellcare-clinic/clinicops/internal/documents"
	"github.com/wellcare-clinic/clinicops/internal/invoicing"
	"github.com/wellcare-clinic/clinicops/internal/invoicing/sequence"
	"github.com/wellcare-clinic/clinicops/internal/notify"
	"github.com/wellcare-clinic/clinicops/internal/observability/metrics"
	"github.com/wellcare-clinic/clinicops/internal/patients"
	"github.com/wellcare-clinic/clinicops/internal/referrals"
	"github.com/wellcare-clinic/clinicops/internal/shifts"
	"github.com/wellcare-clinic/clinicops/internal/staff"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

func main() {
	// .env is optional; containers inject real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinicops API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Separate database/sql handle for the audit trail.
	auditDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open audit db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = auditDB.Close() }()
	auditService := compliance.NewAuditService(auditDB)

	var redisClient *redis.Client
	if cfg.RateLimitEnabled && cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting disabled", "error", err)
			redisClient = nil
		}
	}

	// Document blob storage.
	var blobStore *documents.BlobStore
	if cfg.DocumentsBucket != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		s3Client, presigner := mainconfig.NewS3Clients(awsCfg, cfg)
		blobStore = documents.NewBlobStore(s3Client, presigner, cfg.DocumentsBucket, logger)
	} else {
		logger.Warn("DOCUMENTS_BUCKET not set, document storage disabled")
		blobStore = documents.NewBlobStore(nil, nil, "", logger)
	}

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier *notify.Service
	if emailSender != nil {
		notifier = notify.NewService(emailSender, logger)
	}

	registry := prometheus.NewRegistry()
	invoicingMetrics := metrics.NewInvoicingMetrics(registry)

	// Repositories.
	patientsRepo := patients.NewPostgresRepository(pool)
	allocator := sequence.NewAllocator(logger)
	invoicesRepo := invoicing.NewPostgresRepository(pool, allocator, cfg.InvoiceDueDays)
	appointmentsRepo := appointments.NewPostgresRepository(pool)
	documentsRepo := documents.NewPostgresRepository(pool)
	shiftsRepo := shifts.NewPostgresRepository(pool)
	referralsRepo := referrals.NewPostgresRepository(pool)
	staffRepo := staff.NewPostgresRepository(pool)

	// Handlers.
	routerCfg := &router.Config{
		Logger:              logger,
		PatientsHandler:     patients.NewHandler(patientsRepo, auditService, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentsRepo, logger),
		InvoicingHandler:    invoicing.NewHandler(invoicesRepo, patientsRepo, notifier, auditService, invoicingMetrics, logger),
		DocumentsHandler:    documents.NewHandler(documentsRepo, blobStore, auditService, logger),
		ShiftsHandler:       shifts.NewHandler(shiftsRepo, logger),
		ReferralsHandler:    referrals.NewHandler(referralsRepo, auditService, logger),
		StaffHandler:        staff.NewHandler(staffRepo, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSOrigins,
		JWTSecret:           cfg.JWTSecret,
		JWTIssuer:           cfg.JWTIssuer,
		Redis:               redisClient,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
