package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox（下单成功后入流，Relay 异步转 Kafka）
	CheckoutEventStream   string
	CheckoutEventGroup    string
	CheckoutEventConsumer string

	// EzBuild 后端地址；超时为 0 表示不设超时，由调用方 context 控制
	BackendBaseURL string
	BackendTimeout time.Duration

	// 下单接口限流、防重占位与购物车快照保留时间
	CheckoutRateLimit  int
	CheckoutRateWindow time.Duration
	CheckoutLockTTL    time.Duration
	CartTTL            time.Duration

	// 下单状态缓存（checkout:status）保留时间
	CheckoutStatusTTL time.Duration

	DepositAmount int64
	PaymentMethod string

	// 聊天模型接口，为空时只用离线回复
	ChatAPIURL string
	ChatAPIKey string
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DBPath:                getEnv("DB_PATH", "ezbuild.db"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:               0,
		KafkaBrokers:          splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "ezbuild-checkouts"),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "ezbuild-checkout-projector"),
		CheckoutEventStream:   getEnv("CHECKOUT_EVENT_STREAM", "ezbuild:checkout_events"),
		CheckoutEventGroup:    getEnv("CHECKOUT_EVENT_GROUP", "ezbuild-relay-group"),
		CheckoutEventConsumer: getEnv("CHECKOUT_EVENT_CONSUMER", "ezbuild-relay-1"),
		BackendBaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:8081"), "/"),
		BackendTimeout:        0,
		CheckoutRateLimit:     5,
		CheckoutRateWindow:    10 * time.Second,
		CheckoutLockTTL:       30 * time.Second,
		CartTTL:               24 * time.Hour,
		CheckoutStatusTTL:     24 * time.Hour,
		DepositAmount:         50000,
		PaymentMethod:         getEnv("PAYMENT_METHOD", "VIETQR"),
		ChatAPIURL:            getEnv("CHAT_API_URL", ""),
		ChatAPIKey:            getEnv("CHAT_API_KEY", ""),
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	backendTimeout, err := getEnvInt("BACKEND_TIMEOUT_SEC", int(cfg.BackendTimeout.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BACKEND_TIMEOUT_SEC: %w", err)
	}
	if backendTimeout < 0 {
		return AppConfig{}, fmt.Errorf("BACKEND_TIMEOUT_SEC must be >= 0")
	}
	cfg.BackendTimeout = time.Duration(backendTimeout) * time.Second

	rateLimit, err := getEnvInt("CHECKOUT_RATE_LIMIT", cfg.CheckoutRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CHECKOUT_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("CHECKOUT_RATE_LIMIT must be > 0")
	}
	cfg.CheckoutRateLimit = rateLimit

	if cfg.CheckoutRateWindow, err = positiveSeconds("CHECKOUT_RATE_WINDOW_SEC", cfg.CheckoutRateWindow); err != nil {
		return AppConfig{}, err
	}
	if cfg.CheckoutLockTTL, err = positiveSeconds("CHECKOUT_LOCK_TTL_SEC", cfg.CheckoutLockTTL); err != nil {
		return AppConfig{}, err
	}
	if cfg.CheckoutStatusTTL, err = positiveSeconds("CHECKOUT_STATUS_TTL_SEC", cfg.CheckoutStatusTTL); err != nil {
		return AppConfig{}, err
	}

	cartTTLHour, err := getEnvInt("CART_TTL_HOUR", int(cfg.CartTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid CART_TTL_HOUR: %w", err)
	}
	if cartTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("CART_TTL_HOUR must be > 0")
	}
	cfg.CartTTL = time.Duration(cartTTLHour) * time.Hour

	deposit, err := getEnvInt("DEPOSIT_AMOUNT", int(cfg.DepositAmount))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid DEPOSIT_AMOUNT: %w", err)
	}
	if deposit <= 0 {
		return AppConfig{}, fmt.Errorf("DEPOSIT_AMOUNT must be > 0")
	}
	cfg.DepositAmount = int64(deposit)

	if cfg.BackendBaseURL == "" {
		return AppConfig{}, fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.CheckoutEventStream == "" {
		return AppConfig{}, fmt.Errorf("CHECKOUT_EVENT_STREAM must not be empty")
	}
	if cfg.CheckoutEventGroup == "" {
		return AppConfig{}, fmt.Errorf("CHECKOUT_EVENT_GROUP must not be empty")
	}
	if cfg.CheckoutEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("CHECKOUT_EVENT_CONSUMER must not be empty")
	}

	return cfg, nil
}

// positiveSeconds 读取以秒为单位的正整数配置。
func positiveSeconds(key string, fallback time.Duration) (time.Duration, error) {
	sec, err := getEnvInt(key, int(fallback.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if sec <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return time.Duration(sec) * time.Second, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
