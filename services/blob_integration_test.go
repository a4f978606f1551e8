package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Integration tests for the Postgres and Redis blob stores. They skip when
// the backend is not reachable or in -short mode.

func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("skipping postgres integration test: TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Skipf("postgres not available: %v", err)
	}
	_, err = pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS cart_blobs (
			key        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		pool.Close()
		t.Fatalf("create cart_blobs: %v", err)
	}
	return pool
}

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func exerciseBlobStore(t *testing.T, store BlobStore, key string) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, key); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("Load on empty slot err = %v, want ErrBlobNotFound", err)
	}

	cart := NewCartStore(store, key, nil)
	cart.Restore(ctx)
	cart.AddItem(ctx, "7", "Tea", 50, "img.png")
	cart.AddItem(ctx, "7", "Tea", 50, "img.png")
	cart.AddItem(ctx, "latte", "Latte", 95.5, "")

	restored := NewCartStore(store, key, nil)
	restored.Restore(ctx)
	if n, total := restored.Totals(); n != 3 || FormatPrice(total) != "195.50" {
		t.Errorf("restored totals = (%d, %s), want (3, 195.50)", n, FormatPrice(total))
	}

	restored.Clear(ctx)
	data, err := store.Load(ctx, key)
	if err != nil || string(data) != "{}" {
		t.Errorf("after clear Load = %s, %v", data, err)
	}
}

func TestPostgresBlobStore_Integration(t *testing.T) {
	pool := getTestPool(t)
	defer pool.Close()
	const key = "cart:test-integration"
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `DELETE FROM cart_blobs WHERE key = $1`, key)
	defer pool.Exec(ctx, `DELETE FROM cart_blobs WHERE key = $1`, key)

	exerciseBlobStore(t, NewPostgresBlobStore(pool), key)
}

func TestRedisBlobStore_Integration(t *testing.T) {
	client := getTestRedis(t)
	defer client.Close()
	const key = "test-integration"
	ctx := context.Background()
	client.Del(ctx, cartKeyPrefix+key)
	defer client.Del(ctx, cartKeyPrefix+key)

	exerciseBlobStore(t, NewRedisBlobStore(client), key)
}

func TestMemoryBlobStore(t *testing.T) {
	exerciseBlobStore(t, NewMemoryBlobStore(), "cart")
}

func TestMemoryBlobStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBlobStore()
	buf := []byte(`{}`)
	_ = m.Save(ctx, "k", buf)
	buf[0] = 'x'
	got, _ := m.Load(ctx, "k")
	if string(got) != "{}" {
		t.Errorf("stored blob aliased caller buffer: %s", got)
	}
}
