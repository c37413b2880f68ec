package counter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileBackend(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	sqlite, err := NewSQLiteBackend(filepath.Join(dir, "db", "vocalens.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := b.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
			}

			if err := b.Set(ctx, "k", "1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := b.Set(ctx, "k", "2"); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}

			v, ok, err := b.Get(ctx, "k")
			if err != nil || !ok || v != "2" {
				t.Errorf("Get(k) = %q, %v, %v; want 2, true, nil", v, ok, err)
			}
		})
	}
}

func TestStoreLoadSave(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(b, "")

			n, err := s.Load(ctx)
			if err != nil || n != 0 {
				t.Fatalf("Load() on empty store = %d, %v; want 0, nil", n, err)
			}

			for i := 1; i <= 3; i++ {
				if err := s.Save(ctx, i); err != nil {
					t.Fatalf("Save(%d) error = %v", i, err)
				}
			}

			n, err = s.Load(ctx)
			if err != nil || n != 3 {
				t.Errorf("Load() = %d, %v; want 3, nil", n, err)
			}

			if v, _, _ := b.Get(ctx, DefaultKey); v != "3" {
				t.Errorf("raw value under %s = %q, want 3", DefaultKey, v)
			}
		})
	}
}

func TestStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	tests := []string{"abc", "", "-4", "3.5"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			b := NewMemoryBackend()
			b.Set(ctx, DefaultKey, raw)

			n, err := NewStore(b, DefaultKey).Load(ctx)
			if err != nil || n != 0 {
				t.Errorf("Load() = %d, %v; want 0, nil", n, err)
			}
		})
	}
}

// brokenBackend fails every read and accepts every write
type brokenBackend struct{}

func (*brokenBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (*brokenBackend) Set(ctx context.Context, key, value string) error { return nil }
func (*brokenBackend) Close() error                                     { return nil }

func TestStoreBackendError(t *testing.T) {
	n, err := NewStore(&brokenBackend{}, "").Load(context.Background())
	if err == nil {
		t.Error("Load() expected backend error")
	}
	if n != 0 {
		t.Errorf("Load() = %d, want 0 on error", n)
	}
}

func TestFileBackendPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b1, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	if err := NewStore(b1, "").Save(ctx, 7); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	b2, _ := NewFileBackend(dir)
	n, err := NewStore(b2, "").Load(ctx)
	if err != nil || n != 7 {
		t.Errorf("Load() after reopen = %d, %v; want 7", n, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory holds %d files, want 1 (no temp files left)", len(entries))
	}
}

func TestSQLiteBackendPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "count.db")

	b1, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	NewStore(b1, "").Save(ctx, 12)
	b1.Close()

	b2, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() reopen error = %v", err)
	}
	defer b2.Close()

	n, err := NewStore(b2, "").Load(ctx)
	if err != nil || n != 12 {
		t.Errorf("Load() after reopen = %d, %v; want 12", n, err)
	}
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  *Config
		want    string
		wantErr bool
	}{
		{"memory", &Config{Backend: "memory"}, "*counter.MemoryBackend", false},
		{"file", &Config{Backend: "file", Path: dir}, "*counter.FileBackend", false},
		{"sqlite dir", &Config{Backend: "sqlite", Path: dir}, "*counter.SQLiteBackend", false},
		{"redis without addr", &Config{Backend: "redis"}, "", true},
		{"unknown", &Config{Backend: "etcd"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(ctx, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("NewBackend() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			defer b.Close()
			if got := typeName(b); got != tt.want {
				t.Errorf("NewBackend() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("VOCALENS_REDIS_ADDR")
	if addr == "" {
		t.Skip("VOCALENS_REDIS_ADDR not set, skipping redis test")
	}

	ctx := context.Background()
	b, err := NewRedisBackend(ctx, addr, 0)
	if err != nil {
		t.Fatalf("NewRedisBackend() error = %v", err)
	}
	defer b.Close()

	s := NewStore(b, "vocalens_test_count")
	if err := s.Save(ctx, 5); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if n, err := s.Load(ctx); err != nil || n != 5 {
		t.Errorf("Load() = %d, %v; want 5", n, err)
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
