package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRepository stores keys as a JSON array.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

var _ Repository = (*FileRepository)(nil)

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) LoadAll() ([]Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *FileRepository) Upsert(key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	updated := false
	for i, k := range keys {
		if k.Name == key.Name {
			keys[i] = key
			updated = true
			break
		}
	}
	if !updated {
		keys = append(keys, key)
	}
	return r.saveUnlocked(keys)
}

func (r *FileRepository) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if k.Name != name {
			out = append(out, k)
		}
	}
	return r.saveUnlocked(out)
}

func (r *FileRepository) loadUnlocked() ([]Key, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	if len(b) == 0 {
		return []Key{}, nil
	}
	var keys []Key
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("parse keys %s: %w", r.path, err)
	}
	return keys, nil
}

func (r *FileRepository) saveUnlocked(keys []Key) error {
	f, err := os.OpenFile(r.path, os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(keys)
}
