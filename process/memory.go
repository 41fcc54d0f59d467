package process

import (
	"sort"
	"sync"

	"github.com/lumenforge/lumen/values"
)

// MemoryBackend is the storage contract a Memory process instance
// (spec section 4.7) is built on: append-only event log plus a
// key/value upsert store, shared by the default in-process store and
// any SQL-backed alternative.
type MemoryBackend interface {
	Append(entry values.Value) error
	Recent(n int) ([]values.Value, error)
	Upsert(key string, val values.Value) error
	Get(key string) (values.Value, bool, error)
	Close() error
}

// MapMemoryStore is the default in-process MemoryBackend: an ordered
// log slice plus a plain map, guarded by a mutex since future tasks
// may touch the same instance from different scheduler turns.
type MapMemoryStore struct {
	mu  sync.Mutex
	log []values.Value
	kv  map[string]values.Value
}

func NewMapMemoryStore() *MapMemoryStore {
	return &MapMemoryStore{kv: make(map[string]values.Value)}
}

func (s *MapMemoryStore) Append(entry values.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
	return nil
}

// Recent returns the last n entries, oldest first, or the full log if
// it holds fewer than n.
func (s *MapMemoryStore) Recent(n int) ([]values.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.log) {
		n = len(s.log)
	}
	out := make([]values.Value, n)
	copy(out, s.log[len(s.log)-n:])
	return out, nil
}

func (s *MapMemoryStore) Upsert(key string, val values.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = val
	return nil
}

func (s *MapMemoryStore) Get(key string) (values.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok, nil
}

func (s *MapMemoryStore) Close() error { return nil }

// Keys returns the upsert store's keys in sorted order, matching the
// deterministic key-order iteration the value model uses elsewhere.
func (s *MapMemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
