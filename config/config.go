package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Cart     CartConfig
	Coupon   CouponConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	RabbitMQ RabbitMQConfig
	Catalog  CatalogConfig
	CORS     CORSConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type LogConfig struct {
	Level  string
	Format string
}

// CartConfig carries the pricing and presentation constants of the cart.
type CartConfig struct {
	StorageKey        string
	ShippingThreshold int64
	ShippingFee       int64
	Currency          string
	Locale            string
	FreeShippingLabel string
	CheckoutPath      string
	NotificationTTL   time.Duration
}

type CouponConfig struct {
	BaseURL string
	Path    string
	Timeout time.Duration
}

type StorageConfig struct {
	Driver     string // memory, sqlite, postgres, redis, s3
	SQLitePath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type CatalogConfig struct {
	File        string
	RefreshCron string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type WorkerConfig struct {
	PoolSize int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Cart: CartConfig{
			StorageKey:        getEnv("CART_STORAGE_KEY", "cart"),
			ShippingThreshold: getEnvInt64("CART_SHIPPING_THRESHOLD", 500000),
			ShippingFee:       getEnvInt64("CART_SHIPPING_FEE", 30000),
			Currency:          getEnv("CART_CURRENCY", "تومان"),
			Locale:            getEnv("CART_LOCALE", "fa-IR"),
			FreeShippingLabel: getEnv("CART_FREE_SHIPPING_LABEL", "رایگان"),
			CheckoutPath:      getEnv("CART_CHECKOUT_PATH", "/checkout"),
			NotificationTTL:   parseDuration(getEnv("CART_NOTIFICATION_TTL", "3s"), 3*time.Second),
		},
		Coupon: CouponConfig{
			BaseURL: getEnv("COUPON_BASE_URL", "http://localhost:8080"),
			Path:    getEnv("COUPON_PATH", "/api/apply-coupon"),
			Timeout: parseDuration(getEnv("COUPON_TIMEOUT", "10s"), 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
			SQLitePath: getEnv("STORAGE_SQLITE_PATH", "./data/cart.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "storefront-carts"),
			Prefix:          getEnv("AWS_S3_PREFIX", "carts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "storefront.cart"),
		},
		Catalog: CatalogConfig{
			File:        getEnv("CATALOG_FILE", ""),
			RefreshCron: getEnv("CATALOG_REFRESH_CRON", "*/15 * * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Worker: WorkerConfig{
			PoolSize: getEnvInt("WORKER_POOL_SIZE", 4),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres", "redis", "s3":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Cart.StorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}
	if c.Cart.ShippingThreshold < 0 || c.Cart.ShippingFee < 0 {
		return fmt.Errorf("shipping threshold and fee must be non-negative")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %s, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Invalid integer for %s: %s, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
