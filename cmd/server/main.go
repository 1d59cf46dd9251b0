package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/auth"
	"github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/logger"
	"github.com/ifixandrepair/shop-api/internal/metrics"
	"github.com/ifixandrepair/shop-api/internal/migration"
	"github.com/ifixandrepair/shop-api/internal/notify"
	"github.com/ifixandrepair/shop-api/internal/ratelimit"
	"github.com/ifixandrepair/shop-api/internal/router"
	"github.com/ifixandrepair/shop-api/internal/service"
	"github.com/ifixandrepair/shop-api/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting shop api",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("unable to ping database", zap.Error(err))
	}
	log.Info("connected to database")

	if cfg.AutoMigrate {
		if err := migration.RunURL(cfg.DatabaseURL); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
		log.Info("migrations applied")
	}

	redisClient := initRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()
	queries := database.New(pool)

	// Notifications: email when SMTP is configured, SMS when Twilio is.
	var email notify.EmailSender
	if cfg.SMTP.Host != "" {
		email = notify.NewSMTPSender(cfg.SMTP, cfg.Business.Name)
	} else {
		log.Warn("SMTP_HOST not set, email notifications disabled")
	}
	var sms notify.SMSSender
	if notify.TwilioConfigured(cfg.Twilio) {
		sms = notify.NewTwilioSender(cfg.Twilio)
	} else {
		log.Warn("Twilio credentials not set, SMS notifications disabled")
	}
	dispatcher := notify.NewDispatcher(email, sms, cfg.Business, m, log)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	sessions, err := auth.NewManager(queries, cfg.Auth, cfg.IsProduction(), log)
	if err != nil {
		log.Fatal("init sessions", zap.Error(err))
	}

	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, service.OrderServiceDeps{
		Notifier: dispatcher,
		Events:   hub,
		Metrics:  m,
		Logger:   log,
		Location: cfg.Location,
	})
	reports := service.NewReportService(queries, cfg.Location, log)

	handler := router.New(router.Deps{
		Config:   cfg,
		Queries:  queries,
		Sessions: sessions,
		Orders:   orders,
		Reports:  reports,
		Hub:      hub,
		Limiter:  ratelimit.NewTokenBucket(redisClient, cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
		Metrics:  m,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	timeout := cfg.Shutdown
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// initRedis returns nil when REDIS_ADDR is unset or unreachable; login is
// then not rate limited.
func initRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		log.Info("REDIS_ADDR not set, login rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, login rate limiting disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		client.Close()
		return nil
	}
	log.Info("connected to redis", zap.String("addr", cfg.Addr))
	return client
}
