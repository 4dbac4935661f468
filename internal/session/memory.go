package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process session store with the same TTL
// semantics as the redis variant, used in development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	// Sessions are copied through JSON so callers cannot mutate stored
	// state behind the store's back.
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: failed to marshal session: %w", err)
	}
	s.cache.Set(sessionKey(sess.ID), data, gocache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	v, ok := s.cache.Get(sessionKey(id))
	if !ok {
		return nil, ErrNotFound
	}
	var sess Session
	if err := json.Unmarshal(v.([]byte), &sess); err != nil {
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *MemoryStore) SaveBonus(ctx context.Context, sessionID string, b BonusData) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("session: failed to marshal bonus data: %w", err)
	}
	s.cache.Set(bonusKey(sessionID), data, gocache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) TakeBonus(ctx context.Context, sessionID string) (*BonusData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(bonusKey(sessionID))
	if !ok {
		return nil, nil
	}
	s.cache.Delete(bonusKey(sessionID))

	var b BonusData
	if err := json.Unmarshal(v.([]byte), &b); err != nil {
		return nil, fmt.Errorf("session: failed to decode bonus data: %w", err)
	}
	return &b, nil
}

func (s *MemoryStore) MarkExitPopupShown(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.Get(popupKey(sessionID)); ok {
		return false, nil
	}
	s.cache.Set(popupKey(sessionID), []byte("1"), gocache.DefaultExpiration)
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
