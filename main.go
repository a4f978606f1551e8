package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"food-webapp/bot"
	"food-webapp/config"
	"food-webapp/db"
	"food-webapp/handler"
	"food-webapp/logger"
	"food-webapp/models"
	"food-webapp/router"
	"food-webapp/services"
	"food-webapp/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New("food-webapp", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Subcommands: migrate, seed-menu <file>
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrate(cfg, log)
			return
		case "seed-menu":
			runSeedMenu(cfg, log, os.Args[2:])
			return
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.NeedsDB() {
		if err := db.Init(ctx, cfg.DB); err != nil {
			log.Fatal("db", zap.Error(err))
		}
		defer db.Close()

		// Set AUTO_MIGRATE=1 (or "true") to apply migrations on startup.
		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(ctx, log, false); err != nil {
				log.Fatal("migrate", zap.Error(err))
			}
		}
	}

	blobs, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatal("cart storage", zap.String("store", cfg.Cart.Store), zap.Error(err))
	}
	defer closeBlobs()

	menu, err := newMenu(cfg)
	if err != nil {
		log.Fatal("menu", zap.String("source", cfg.Menu.Source), zap.Error(err))
	}

	opts := []services.SubmitterOption{services.WithLang(cfg.Lang)}
	var b *bot.Bot
	if cfg.Telegram.Token != "" {
		b, err = bot.New(cfg, menu, log.Named("bot"))
		if err != nil {
			log.Fatal("bot", zap.Error(err))
		}
		opts = append(opts, services.WithAcceptedHook(func(ctx context.Context, o models.OrderRequest, r models.SinkResponse) {
			go b.NotifyOrder(context.WithoutCancel(ctx), o, r)
		}))
	} else {
		log.Warn("TOKEN not set, Telegram bot disabled")
	}

	sink := services.NewHTTPSink(cfg.Sink.URL, cfg.Sink.Timeout)
	submitter := services.NewSubmitter(sink, log.Named("orders"), opts...)
	sessions := services.NewSessions(blobs, cfg.Cart.Key, log.Named("cart"))
	go sessions.RunEviction(ctx, cfg.Cart.IdleTTL/4, cfg.Cart.IdleTTL)

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run()
	sessions.Subscribe(func(clientID string, change services.CartChange) {
		hub.Publish(clientID, ws.EventCartChanged, handler.NewCartResponse(change))
	})

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: router.New(cfg, router.Deps{
			Menu:      menu,
			Sessions:  sessions,
			Submitter: submitter,
			Hub:       hub,
			Log:       log.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	if b != nil {
		go b.Start()
		log.Info("bot started")
	}

	<-ctx.Done()
	log.Info("shutting down")
	if b != nil {
		b.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}

// newBlobStore picks the cart storage backend. The returned func releases it.
func newBlobStore(ctx context.Context, cfg *config.Config) (services.BlobStore, func(), error) {
	switch cfg.Cart.Store {
	case config.CartStorePostgres:
		return services.NewPostgresBlobStore(db.Pool), func() {}, nil
	case config.CartStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return services.NewRedisBlobStore(client), func() { client.Close() }, nil
	default:
		return services.NewMemoryBlobStore(), func() {}, nil
	}
}

func newMenu(cfg *config.Config) (services.Menu, error) {
	if cfg.Menu.Source == config.MenuSourcePostgres {
		return services.NewPostgresMenu(db.Pool), nil
	}
	return services.LoadStaticMenu(cfg.Menu.File)
}

func runMigrate(cfg *config.Config, log *zap.Logger) {
	ctx := context.Background()
	if err := db.Init(ctx, cfg.DB); err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	if err := applyMigrations(ctx, log, true); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
}

// runSeedMenu copies a menu JSON file into the menu_items table.
func runSeedMenu(cfg *config.Config, log *zap.Logger, args []string) {
	path := cfg.Menu.File
	if len(args) > 0 {
		path = args[0]
	}
	src, err := services.LoadStaticMenu(path)
	if err != nil {
		log.Fatal("read menu", zap.String("file", path), zap.Error(err))
	}

	ctx := context.Background()
	if err := db.Init(ctx, cfg.DB); err != nil {
		log.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	items, _ := src.List(ctx, models.CategoryAll)
	dst := services.NewPostgresMenu(db.Pool)
	for _, item := range items {
		id, err := dst.AddMenuItem(ctx, item)
		if err != nil {
			log.Fatal("add menu item", zap.String("name", item.Name), zap.Error(err))
		}
		log.Info("menu item added", zap.String("id", id.String()), zap.String("name", item.Name))
	}
}
