package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CART_STORE", "")
	t.Setenv("SINK_TIMEOUT", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CART_IDLE_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Cart.Store != CartStoreMemory {
		t.Errorf("Cart.Store = %q, want %q", cfg.Cart.Store, CartStoreMemory)
	}
	if cfg.Sink.Timeout != 0 {
		t.Errorf("Sink.Timeout = %v, want 0", cfg.Sink.Timeout)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Cart.IdleTTL != 30*time.Minute {
		t.Errorf("Cart.IdleTTL = %v, want 30m", cfg.Cart.IdleTTL)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("SINK_URL", "https://script.example/exec")
	t.Setenv("SINK_TIMEOUT", "15s")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("CART_IDLE_TTL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Cart.Store != CartStoreRedis {
		t.Errorf("Cart.Store = %q, want redis", cfg.Cart.Store)
	}
	if cfg.Sink.Timeout != 15*time.Second {
		t.Errorf("Sink.Timeout = %v, want 15s", cfg.Sink.Timeout)
	}
	if cfg.Cart.IdleTTL != 2*time.Hour {
		t.Errorf("Cart.IdleTTL = %v, want 2h", cfg.Cart.IdleTTL)
	}
	if cfg.Telegram.AdminID != 42 {
		t.Errorf("Telegram.AdminID = %d, want 42", cfg.Telegram.AdminID)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://b.example" {
		t.Errorf("HTTP.CORSOrigins = %v", cfg.HTTP.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_PORT", "abc"},
		{"REDIS_DB", "x"},
		{"ADMIN_ID", "admin"},
		{"SINK_TIMEOUT", "soon"},
		{"CART_IDLE_TTL", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Cart: CartConfig{Store: CartStoreMemory, Key: "cart", IdleTTL: time.Minute},
			Menu: MenuConfig{Source: MenuSourceFile},
			Sink: SinkConfig{URL: "http://sink"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"unknown store", func(c *Config) { c.Cart.Store = "sqlite" }, true},
		{"unknown menu", func(c *Config) { c.Menu.Source = "yaml" }, true},
		{"no sink", func(c *Config) { c.Sink.URL = "" }, true},
		{"empty key", func(c *Config) { c.Cart.Key = "" }, true},
		{"zero idle ttl", func(c *Config) { c.Cart.IdleTTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNeedsDB(t *testing.T) {
	c := &Config{Cart: CartConfig{Store: CartStoreRedis}, Menu: MenuConfig{Source: MenuSourceFile}}
	if c.NeedsDB() {
		t.Error("redis + file should not need DB")
	}
	c.Menu.Source = MenuSourcePostgres
	if !c.NeedsDB() {
		t.Error("postgres menu should need DB")
	}
}
