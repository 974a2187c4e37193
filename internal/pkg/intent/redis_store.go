package intent

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/mhsong/shopfront/internal/pkg/cache"
)

const keyPrefix = "payment_intent:"

// redisStore keeps the intent slot in the shared Redis cache so it survives
// page reloads and is visible across tabs of the same browser session.
type redisStore struct {
	key    string
	maxAge time.Duration
}

// NewRedisStore creates a Redis-backed store scoped to one browser session.
func NewRedisStore(scope string) Store {
	return NewRedisStoreWithMaxAge(scope, MaxAgeFromEnv())
}

// NewRedisStoreWithMaxAge creates a Redis-backed store with a custom expiry.
func NewRedisStoreWithMaxAge(scope string, maxAge time.Duration) Store {
	return &redisStore{key: keyPrefix + scope, maxAge: maxAge}
}

func (s *redisStore) Save(rec Record) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("[IntentStore] Failed to marshal intent for %s: %v", s.key, err)
		return
	}

	ttl := s.maxAge
	if ttl <= 0 {
		ttl = DefaultMaxAge
	}
	if err := cache.Set(s.key, data, ttl); err != nil {
		// Non-fatal: the redirect query parameter remains the primary source.
		log.Warnf("[IntentStore] Failed to persist intent for %s: %v", s.key, err)
	}
}

func (s *redisStore) Load() *Record {
	data, err := cache.Get(s.key)
	if err != nil {
		if err != redis.Nil {
			log.Warnf("[IntentStore] Failed to load intent for %s: %v", s.key, err)
		}
		return nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		// Malformed slot counts as absent; drop it so it cannot recur.
		log.Warnf("[IntentStore] Discarding corrupt intent for %s: %v", s.key, err)
		s.Clear()
		return nil
	}
	if rec.PaymentID == 0 {
		s.Clear()
		return nil
	}
	if expired(&rec, s.maxAge, time.Now()) {
		log.Infof("[IntentStore] Discarding stale intent for %s (age=%s)", s.key, time.Since(rec.CreatedAt))
		s.Clear()
		return nil
	}
	return &rec
}

func (s *redisStore) Clear() {
	if err := cache.Delete(s.key); err != nil {
		log.Debugf("[IntentStore] Failed to clear intent for %s: %v", s.key, err)
	}
}
