package auth

import (
	"os"
	"path/filepath"
	"testing"
)

type memRepo struct{ keys []Key }

func (m *memRepo) LoadAll() ([]Key, error) { return append([]Key{}, m.keys...), nil }
func (m *memRepo) Upsert(k Key) error {
	for i, x := range m.keys {
		if x.Name == k.Name {
			m.keys[i] = k
			return nil
		}
	}
	m.keys = append(m.keys, k)
	return nil
}
func (m *memRepo) Remove(name string) error {
	out := make([]Key, 0, len(m.keys))
	for _, x := range m.keys {
		if x.Name != name {
			out = append(out, x)
		}
	}
	m.keys = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{keys: []Key{{Name: "evaluator", Value: "k-eval"}}}
	svc, err := NewWithRepo(repo, []string{"k-env", "", "k-extra"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAllowed("k-eval") {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAllowed("k-env") || !svc.IsAllowed("k-extra") {
		t.Fatalf("initial env keys not merged")
	}
	if svc.IsAllowed("k-other") || svc.IsAllowed("") {
		t.Fatalf("unexpected allowed")
	}
	if k, ok := svc.Lookup("k-extra"); !ok || k.Name != "env-2" {
		t.Fatalf("lookup: %+v %v", k, ok)
	}

	if err := svc.Upsert(Key{Name: "ops", Value: "k-ops"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !svc.IsAllowed("k-ops") {
		t.Fatalf("upsert not effective")
	}

	if err := svc.Remove("evaluator"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAllowed("k-eval") {
		t.Fatalf("remove not effective")
	}

	lst := svc.List()
	if len(lst) != 3 || lst[0].Name != "env" {
		t.Fatalf("want 3 sorted keys, got %+v", lst)
	}
}

func TestServiceDisabledWithoutKeys(t *testing.T) {
	svc, err := NewWithRepo(nil, nil)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if svc.Enabled() || svc.IsAllowed("anything") {
		t.Fatalf("empty service must reject")
	}
}

func TestFileRepository(t *testing.T) {
	p := filepath.Join(t.TempDir(), "keys", "api_keys.json")
	repo, err := NewFileRepository(p)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if keys, err := repo.LoadAll(); err != nil || len(keys) != 0 {
		t.Fatalf("fresh repo: %v %v", keys, err)
	}
	if err := repo.Upsert(Key{Name: "a", Value: "1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(Key{Name: "a", Value: "2"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(Key{Name: "b", Value: "3"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	svc, err := NewWithRepo(repo, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if !svc.IsAllowed("2") || svc.IsAllowed("1") || svc.IsAllowed("3") {
		t.Fatalf("unexpected key set: %+v", svc.List())
	}

	if err := os.WriteFile(p, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewWithRepo(repo, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
