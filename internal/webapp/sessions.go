package webapp

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"discharge-docgen/internal/record"
)

// RecordStore holds the synthesized record across the human-review step.
// The core never assumes a specific backend; this interface is the whole
// contract.
type RecordStore interface {
	Get(token string) (record.StructuredRecord, bool)
	Set(token string, rec record.StructuredRecord)
	Clear(token string)
}

type sessionEntry struct {
	rec     record.StructuredRecord
	expires time.Time
}

// SessionStore is an in-memory token-scoped store with TTL expiry. Expired
// entries are swept opportunistically on writes.
type SessionStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]sessionEntry
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{ttl: ttl, items: map[string]sessionEntry{}}
}

func (s *SessionStore) Get(token string) (record.StructuredRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.items[token]
	if !ok || time.Now().After(entry.expires) {
		return record.StructuredRecord{}, false
	}
	return entry.rec, true
}

func (s *SessionStore) Set(token string, rec record.StructuredRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for t, entry := range s.items {
		if now.After(entry.expires) {
			delete(s.items, t)
		}
	}
	s.items[token] = sessionEntry{rec: rec, expires: now.Add(s.ttl)}
}

func (s *SessionStore) Clear(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
