package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/careport/clinic-booking/internal/api"
	"github.com/careport/clinic-booking/internal/booking"
	"github.com/careport/clinic-booking/internal/chat"
	"github.com/careport/clinic-booking/internal/config"
	"github.com/careport/clinic-booking/internal/consult"
	"github.com/careport/clinic-booking/internal/db"
	"github.com/careport/clinic-booking/internal/identity"
	"github.com/careport/clinic-booking/internal/observability/metrics"
	redisclient "github.com/careport/clinic-booking/internal/redis"
	"github.com/careport/clinic-booking/internal/timeline"
	"github.com/careport/clinic-booking/pkg/logging"
)

const version = "1.2.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("running", "env", cfg.Env, "http_port", cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	verifier := identity.NewVerifier(cfg.JWTSecret)
	registry := prometheus.DefaultRegisterer

	timelineSvc := timeline.NewService(timeline.NewPgRepository(pgPool))

	bookingSvc := booking.NewService(
		booking.NewPgRepository(pgPool),
		redisclient.NewRedisPatientLocker(rdb, cfg.ClaimLockTTL),
		timelineSvc,
		metrics.NewBookingMetrics(registry),
		logger,
	)

	chatSvc := chat.NewService(chat.NewPgRepository(pgPool))
	hub := chat.NewHub()
	chatWS := chat.NewWSHandler(verifier, chatSvc, hub, metrics.NewChatMetrics(registry), logger)

	identitySvc := identity.NewService(identity.NewPgRepository(pgPool), verifier, cfg.TokenTTL)

	var presigner consult.Presigner
	if cfg.SpacesConfigured() {
		presigner, err = consult.NewS3Presigner(rootCtx, consult.S3Config{
			Bucket:    cfg.SpacesBucket,
			Region:    cfg.SpacesRegion,
			Endpoint:  cfg.SpacesEndpoint,
			Key:       cfg.SpacesKey,
			Secret:    cfg.SpacesSecret,
			UploadTTL: cfg.UploadURLTTL,
			ReadTTL:   cfg.ReadURLTTL,
		})
		if err != nil {
			log.Fatalf("s3 presigner error: %v", err)
		}
	} else {
		logger.Warn("object storage not configured, consultation uploads disabled")
		presigner = consult.DisabledPresigner{}
	}
	consultSvc := consult.NewService(consult.NewPgRepository(pgPool), presigner, logger)

	router := api.NewRouter(api.RouterConfig{
		Booking:  bookingSvc,
		Chat:     chatSvc,
		ChatWS:   chatWS,
		Identity: identitySvc,
		Timeline: timelineSvc,
		Consult:  consultSvc,
		Verifier: verifier,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
