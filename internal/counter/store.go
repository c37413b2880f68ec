package counter

import (
	"context"
	"strconv"
	"strings"
)

// DefaultKey is the key the collected-words count is stored under
const DefaultKey = "vocalens_count"

// Store loads and saves the collected-words count
type Store interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, count int) error
}

type store struct {
	backend Backend
	key     string
}

// NewStore returns a Store keeping the count under key in backend
func NewStore(backend Backend, key string) Store {
	if key == "" {
		key = DefaultKey
	}
	return &store{backend: backend, key: key}
}

// Load returns 0 for an absent, unparsable or negative value. Backend
// errors are returned alongside 0 so callers can log and carry on.
func (s *store) Load(ctx context.Context) (int, error) {
	v, ok, err := s.backend.Get(ctx, s.key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

func (s *store) Save(ctx context.Context, count int) error {
	return s.backend.Set(ctx, s.key, strconv.Itoa(count))
}
