package counter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backend is a minimal key-value store
type Backend interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key
	Set(ctx context.Context, key, value string) error
	// Close releases the backend's resources
	Close() error
}

// Config selects and configures a backend
type Config struct {
	Backend   string // "file", "sqlite", "redis" or "memory"
	Path      string // directory for file, database file for sqlite
	RedisAddr string
	RedisDB   int
	Key       string
	Timeout   time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: "file",
		Path:    defaultDataDir(),
		Key:     DefaultKey,
		Timeout: 3 * time.Second,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "vocalens")
	}
	return ".vocalens"
}

// NewBackend creates the backend selected by the configuration
func NewBackend(ctx context.Context, config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Backend {
	case "memory":
		return NewMemoryBackend(), nil
	case "file", "":
		return NewFileBackend(config.Path)
	case "sqlite":
		path := config.Path
		if path == "" || filepath.Ext(path) == "" {
			path = filepath.Join(path, "vocalens.db")
		}
		return NewSQLiteBackend(path)
	case "redis":
		return NewRedisBackend(ctx, config.RedisAddr, config.RedisDB)
	default:
		return nil, fmt.Errorf("unknown counter backend: %s", config.Backend)
	}
}
