package intent

import (
	"strconv"
	"sync"
	"time"

	"github.com/mhsong/shopfront/internal/pkg/env"
)

// DefaultMaxAge bounds how long a persisted intent is considered
// recoverable. A checkout abandoned for longer than this is stale and must
// not be resumed by a later, unrelated payment redirect.
const DefaultMaxAge = 30 * time.Minute

// Record is a locally persisted reference to a payment attempt awaiting
// confirmation. It survives a page reload until the reconciliation flow
// clears it.
type Record struct {
	PaymentID uint64    `json:"payment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store holds at most one pending intent per scope. Save overwrites any
// prior record (single-flight checkout), Load returns nil for an absent,
// corrupted or expired slot, and Clear is idempotent. The redirect query
// parameter stays the primary source of truth, so storage failures are
// swallowed rather than surfaced.
type Store interface {
	Save(rec Record)
	Load() *Record
	Clear()
}

// MaxAgeFromEnv reads the intent expiry from PAYMENT_INTENT_MAX_AGE_MINUTES.
func MaxAgeFromEnv() time.Duration {
	raw := env.GetEnv("PAYMENT_INTENT_MAX_AGE_MINUTES", "")
	if raw == "" {
		return DefaultMaxAge
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return DefaultMaxAge
	}
	return time.Duration(minutes) * time.Minute
}

func expired(rec *Record, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 || rec.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(rec.CreatedAt) > maxAge
}

// MemoryStore is a process-local Store used in tests and in deployments
// without a cache server.
type MemoryStore struct {
	mu     sync.Mutex
	rec    *Record
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates an in-memory single-slot store with DefaultMaxAge.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maxAge: DefaultMaxAge, now: time.Now}
}

// NewMemoryStoreWithMaxAge creates an in-memory store with a custom expiry.
func NewMemoryStoreWithMaxAge(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{maxAge: maxAge, now: time.Now}
}

func (s *MemoryStore) Save(rec Record) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.mu.Lock()
	s.rec = &rec
	s.mu.Unlock()
}

func (s *MemoryStore) Load() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil || s.rec.PaymentID == 0 {
		s.rec = nil
		return nil
	}
	if expired(s.rec, s.maxAge, s.now()) {
		s.rec = nil
		return nil
	}
	out := *s.rec
	return &out
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.rec = nil
	s.mu.Unlock()
}
