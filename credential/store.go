// Package credential keeps the YouTube Data API key.
package credential

import (
	"errors"
	"sync"
)

var ErrMissingCredential = errors.New("youtube api key not found, set it with SetKey")

type Store struct {
	mu  sync.RWMutex
	key string
}

func NewStore(key string) *Store {
	return &Store{key: key}
}

func (s *Store) Set(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

func (s *Store) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == "" {
		return "", ErrMissingCredential
	}

	return s.key, nil
}

func (s *Store) Reset() {
	s.Set("")
}

// Resolve returns key when it is set and the stored key otherwise.
func (s *Store) Resolve(key string) (string, error) {
	if key != "" {
		return key, nil
	}

	return s.Get()
}

var defaultStore = &Store{}

// Default is the process wide store used by SetKey and GetKey.
func Default() *Store {
	return defaultStore
}

func SetKey(key string) {
	defaultStore.Set(key)
}

func GetKey() (string, error) {
	return defaultStore.Get()
}

func Reset() {
	defaultStore.Reset()
}
