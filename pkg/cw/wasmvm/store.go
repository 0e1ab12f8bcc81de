package wasmvm

import "strings"

// Store is a per-instance key/value state space. Contracts keep all mutable
// state here so the host can snapshot and roll back whole transactions.
type Store struct {
	data map[string][]byte
}

func newStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the value under key and whether it exists.
func (s *Store) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set writes value under key.
func (s *Store) Set(key string, value []byte) {
	s.data[key] = value
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	delete(s.data, key)
}

// Keys returns all keys with the given prefix.
func (s *Store) Keys(prefix string) []string {
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *Store) clone() *Store {
	c := newStore()
	for k, v := range s.data {
		buf := make([]byte, len(v))
		copy(buf, v)
		c.data[k] = buf
	}
	return c
}
