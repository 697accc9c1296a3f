package flagstore

import (
	"context"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

type MemFlagStore struct {
	Data *xsync.MapOf[string, []string]
}

var _ FlagStore = (*MemFlagStore)(nil)

func NewMemFlagStore() MemFlagStore {
	return MemFlagStore{
		Data: xsync.NewMapOf[string, []string](),
	}
}

func (s MemFlagStore) Get(ctx context.Context, key string) ([]string, error) {
	v, ok := s.Data.Load(key)
	if !ok {
		return []string{}, nil
	}
	return slices.Clone(v), nil
}

func (s MemFlagStore) Add(ctx context.Context, key string, flags []string) error {
	s.Data.Compute(key, func(v []string, loaded bool) ([]string, bool) {
		out := append(slices.Clone(v), flags...)
		return dedupeStrings(out), false
	})
	return nil
}

// does not error if flags not in set
func (s MemFlagStore) Remove(ctx context.Context, key string, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	s.Data.Compute(key, func(v []string, loaded bool) ([]string, bool) {
		out := []string{}
		for _, f := range v {
			if !slices.Contains(flags, f) {
				out = append(out, f)
			}
		}
		return out, false
	})
	return nil
}
