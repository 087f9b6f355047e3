package throttle

import (
	"errors"
	"sync"
	"time"
)

// ErrStorageUnavailable is returned by stores that cannot be read or
// written at all.
var ErrStorageUnavailable = errors.New("throttle storage unavailable")

// Storage is an expiring key/value store, the equivalent of browser cookies
// for the guard. Implementations drop entries once their ttl has passed.
type Storage interface {
	// Get returns the value for key and whether a live entry exists.
	Get(key string) (string, bool, error)
	// Set stores value under key for ttl.
	Set(key, value string, ttl time.Duration) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

type entry struct {
	Value     string    `json:"v"`
	ExpiresAt time.Time `json:"e"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// MemoryStore keeps entries for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.Value, true, nil
}

func (s *MemoryStore) Set(key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{Value: value, ExpiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
