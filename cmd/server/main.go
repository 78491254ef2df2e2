package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ezbuild/internal/admin"
	"ezbuild/internal/audit"
	"ezbuild/internal/backend"
	"ezbuild/internal/cart"
	"ezbuild/internal/chat"
	"ezbuild/internal/checkout"
	"ezbuild/internal/config"
	"ezbuild/internal/middleware"
	"ezbuild/internal/model"
	"ezbuild/internal/queue"
	"ezbuild/internal/router"
	"ezbuild/internal/session"
	"ezbuild/internal/telemetry"
	rediskey "ezbuild/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	rd "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const serviceName = "ezbuild-storefront"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// .env 可选，不存在时只用进程环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	metricsHandler, shutdownMetrics, err := telemetry.InitMeterProvider(serviceName, "0.1.0")
	if err != nil {
		logger.Error("init meter provider", "error", err)
		os.Exit(1)
	}

	// 1. SQLite 存下单审计与事件投影
	sqlDB, err := telemetry.OpenDB(sqlite.DriverName, cfg.DBPath)
	if err != nil {
		logger.Error("db open", "error", err)
		os.Exit(1)
	}
	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		logger.Error("db open", "error", err)
		os.Exit(1)
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Error("db migrate", "error", err)
		os.Exit(1)
	}

	// 2. Redis 代替浏览器存储，同时承载限流与 outbox
	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		logger.Error("redis ping", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	cancelPing()

	// 3. 出站请求统一挂 otelhttp
	httpClient := &http.Client{
		Timeout:   cfg.BackendTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	api := backend.NewClient(cfg.BackendBaseURL, httpClient)

	kv := rediskey.NewSessionStore(rdb)
	carts := cart.NewStore(kv, cfg.CartTTL)
	guard := session.NewGuard(kv, cfg.CheckoutLockTTL, logger)
	recorder := audit.NewRecorder(db, rdb, cfg.CheckoutStatusTTL, logger)
	outbox := queue.NewOutbox(rdb, cfg.CheckoutEventStream)
	svc := checkout.NewService(api, carts, guard, recorder, outbox, checkout.Options{
		Deposit:       cfg.DepositAmount,
		PaymentMethod: cfg.PaymentMethod,
	}, logger)

	// 4. 后台任务：Stream → Kafka 转发，Kafka → checkout_events 投影
	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db, logger)
	relay := queue.NewRelay(rdb, producer, cfg.CheckoutEventStream, cfg.CheckoutEventGroup, cfg.CheckoutEventConsumer, logger)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); relay.Run(bgCtx) }()
	go func() { defer wg.Done(); consumer.Run(bgCtx) }()

	// 5. HTTP
	r := gin.New()
	r.Use(gin.Recovery(), telemetry.GinRoute(), middleware.RequestLogger(logger))
	router.Setup(r, router.Deps{
		Backend:    api,
		Carts:      carts,
		Checkout:   svc,
		Recorder:   recorder,
		Panels:     admin.NewRegistry(api, logger),
		Chat:       chat.NewResponder(cfg.ChatAPIURL, cfg.ChatAPIKey, httpClient, logger),
		Metrics:    metricsHandler,
		RDB:        rdb,
		RateLimit:  cfg.CheckoutRateLimit,
		RateWindow: cfg.CheckoutRateWindow,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront", "addr", cfg.HTTPAddr, "backend", cfg.BackendBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	stopBackground()
	wg.Wait()
	if err := producer.Close(); err != nil {
		logger.Warn("close producer", "error", err)
	}
	if err := consumer.Close(); err != nil {
		logger.Warn("close consumer", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close db", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("close redis", "error", err)
	}
	if err := shutdownMetrics(ctx); err != nil {
		logger.Warn("shutdown metrics", "error", err)
	}
	logger.Info("stopped")
}
