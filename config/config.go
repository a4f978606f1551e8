package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CartStoreMemory   = "memory"
	CartStorePostgres = "postgres"
	CartStoreRedis    = "redis"

	MenuSourcePostgres = "postgres"
	MenuSourceFile     = "file"
)

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	HTTP     HTTPConfig
	Cart     CartConfig
	Sink     SinkConfig
	Menu     MenuConfig
	Lang     string
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TelegramConfig struct {
	Token        string
	MessageToken string // token for sending order notifications to admin
	AdminID      int64
	WebAppURL    string // mini-app page opened from /start
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

type CartConfig struct {
	Store string // memory, postgres or redis
	Key   string // storage slot name; per-client keys are "<Key>:<clientID>"
	// IdleTTL is how long an unused session stays cached; its cart stays
	// in storage either way.
	IdleTTL time.Duration
}

type SinkConfig struct {
	URL     string
	Timeout time.Duration // 0 means wait for the sink indefinitely
}

type MenuConfig struct {
	Source string // postgres or file
	File   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	adminID, err := strconv.ParseInt(getEnv("ADMIN_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
	}
	sinkTimeout, err := time.ParseDuration(getEnv("SINK_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SINK_TIMEOUT: %w", err)
	}

	idleTTL, err := time.ParseDuration(getEnv("CART_IDLE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CART_IDLE_TTL: %w", err)
	}

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "delivery"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Telegram: TelegramConfig{
			Token:        getEnv("TOKEN", ""),
			MessageToken: getEnv("MESSAGE_TOKEN", ""),
			AdminID:      adminID,
			WebAppURL:    getEnv("WEBAPP_URL", ""),
		},
		HTTP: HTTPConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Cart: CartConfig{
			Store:   strings.ToLower(getEnv("CART_STORE", CartStoreMemory)),
			Key:     getEnv("CART_KEY", "cart"),
			IdleTTL: idleTTL,
		},
		Sink: SinkConfig{
			URL:     getEnv("SINK_URL", ""),
			Timeout: sinkTimeout,
		},
		Menu: MenuConfig{
			Source: strings.ToLower(getEnv("MENU_SOURCE", MenuSourceFile)),
			File:   getEnv("MENU_FILE", "menu.json"),
		},
		Lang:     getEnv("LANG_CODE", "ru"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Validate reports settings that make the service unusable.
func (c *Config) Validate() error {
	switch c.Cart.Store {
	case CartStoreMemory, CartStorePostgres, CartStoreRedis:
	default:
		return fmt.Errorf("unknown CART_STORE %q", c.Cart.Store)
	}
	switch c.Menu.Source {
	case MenuSourcePostgres, MenuSourceFile:
	default:
		return fmt.Errorf("unknown MENU_SOURCE %q", c.Menu.Source)
	}
	if c.Sink.URL == "" {
		return fmt.Errorf("SINK_URL not set")
	}
	if c.Cart.Key == "" {
		return fmt.Errorf("CART_KEY must not be empty")
	}
	if c.Cart.IdleTTL <= 0 {
		return fmt.Errorf("CART_IDLE_TTL must be positive")
	}
	return nil
}

// NeedsDB is true when any component is backed by Postgres.
func (c *Config) NeedsDB() bool {
	return c.Cart.Store == CartStorePostgres || c.Menu.Source == MenuSourcePostgres
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
