// Package auth checks the x-api-key header against the configured keys.
package auth

import (
	"crypto/subtle"
	"sort"
	"strconv"
	"sync"
)

// Key is one accepted API key. Name is only used in logs.
type Key struct {
	Name  string `json:"name"`
	Value string `json:"key"`
}

type Repository interface {
	LoadAll() ([]Key, error)
	Upsert(key Key) error
	Remove(name string) error
}

type Service struct {
	repo Repository

	mu   sync.RWMutex
	keys map[string]Key // by name
}

// NewWithRepo preloads keys from repo and adds the initial values from the
// environment as "env-N".
func NewWithRepo(repo Repository, initial []string) (*Service, error) {
	s := &Service{repo: repo, keys: make(map[string]Key)}
	if repo != nil {
		keys, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if k.Value != "" {
				s.keys[k.Name] = k
			}
		}
	}
	for i, v := range initial {
		if v == "" {
			continue
		}
		name := envName(i)
		if _, ok := s.keys[name]; !ok {
			s.keys[name] = Key{Name: name, Value: v}
		}
	}
	return s, nil
}

func envName(i int) string {
	if i == 0 {
		return "env"
	}
	return "env-" + strconv.Itoa(i)
}

// Enabled reports whether any key is configured. With no keys every
// request is rejected.
func (s *Service) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys) > 0
}

// Lookup returns the key matching presented. Every configured key is
// compared in constant time.
func (s *Service) Lookup(presented string) (Key, bool) {
	if presented == "" {
		return Key{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found Key
		ok    bool
	)
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare([]byte(k.Value), []byte(presented)) == 1 {
			found, ok = k, true
		}
	}
	return found, ok
}

func (s *Service) IsAllowed(presented string) bool {
	_, ok := s.Lookup(presented)
	return ok
}

func (s *Service) Upsert(key Key) error {
	s.mu.Lock()
	s.keys[key.Name] = key
	s.mu.Unlock()
	if s.repo != nil {
		return s.repo.Upsert(key)
	}
	return nil
}

func (s *Service) Remove(name string) error {
	s.mu.Lock()
	delete(s.keys, name)
	s.mu.Unlock()
	if s.repo != nil {
		return s.repo.Remove(name)
	}
	return nil
}

// List returns the keys sorted by name.
func (s *Service) List() []Key {
	s.mu.RLock()
	out := make([]Key, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
