package intent

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhsong/shopfront/internal/pkg/cache"
	"github.com/mhsong/shopfront/internal/pkg/env"
)

func configureTestCache(t *testing.T) {
	t.Helper()

	hosts := []string{
		env.GetEnv("CACHE_HOST", ""),
		"cache",
		"localhost",
		"127.0.0.1",
	}
	port := env.GetEnv("CACHE_PORT", "6379")
	password := env.GetEnv("CACHE_PASSWORD", "")

	var lastErr error
	for _, host := range hosts {
		if host == "" {
			continue
		}
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", host, port),
			Password: password,
			DB:       0,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		_, err := client.Ping(ctx).Result()
		cancel()
		_ = client.Close()
		if err == nil {
			if env.Env == nil {
				env.Env = map[string]string{}
			}
			env.Env["CACHE_HOST"] = host
			env.Env["CACHE_PORT"] = port
			_ = os.Setenv("CACHE_HOST", host)
			_ = os.Setenv("CACHE_PORT", port)
			cache.SetupCache()
			return
		}
		lastErr = err
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	configureTestCache(t)

	scope := fmt.Sprintf("test-scope-%d", time.Now().UnixNano())
	store := NewRedisStore(scope)
	t.Cleanup(store.Clear)

	assert.Nil(t, store.Load())

	store.Save(Record{PaymentID: 42})
	rec := store.Load()
	require.NotNil(t, rec)
	assert.Equal(t, uint64(42), rec.PaymentID)

	// Overwrite keeps a single slot
	store.Save(Record{PaymentID: 99})
	rec = store.Load()
	require.NotNil(t, rec)
	assert.Equal(t, uint64(99), rec.PaymentID)

	store.Clear()
	assert.Nil(t, store.Load())
}

func TestRedisStoreDiscardsCorruptSlot(t *testing.T) {
	configureTestCache(t)

	scope := fmt.Sprintf("test-corrupt-%d", time.Now().UnixNano())
	store := NewRedisStore(scope)
	t.Cleanup(store.Clear)

	require.NoError(t, cache.Set(keyPrefix+scope, "{not json", time.Minute))
	assert.Nil(t, store.Load())

	// The corrupt slot was dropped, not kept around
	_, err := cache.Get(keyPrefix + scope)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisStoreDiscardsStaleIntent(t *testing.T) {
	configureTestCache(t)

	scope := fmt.Sprintf("test-stale-%d", time.Now().UnixNano())
	store := NewRedisStoreWithMaxAge(scope, 30*time.Minute)
	t.Cleanup(store.Clear)

	store.Save(Record{PaymentID: 7, CreatedAt: time.Now().Add(-time.Hour)})
	assert.Nil(t, store.Load())
}
