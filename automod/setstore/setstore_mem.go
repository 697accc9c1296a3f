package setstore

import (
	"context"
	"maps"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

type MemSetStore struct {
	Sets *xsync.MapOf[string, map[string]bool]
}

var _ SetStore = (*MemSetStore)(nil)

func NewMemSetStore() MemSetStore {
	return MemSetStore{
		Sets: xsync.NewMapOf[string, map[string]bool](),
	}
}

func (s MemSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	set, ok := s.Sets.Load(name)
	if !ok {
		// NOTE: currently returns false when entire set isn't found
		return false, nil
	}
	return set[val], nil
}

func (s MemSetStore) Add(ctx context.Context, name, val string) error {
	// sets are copied on write, so readers never see a map being mutated
	s.Sets.Compute(name, func(set map[string]bool, loaded bool) (map[string]bool, bool) {
		out := make(map[string]bool, len(set)+1)
		maps.Copy(out, set)
		out[val] = true
		return out, false
	})
	return nil
}

func (s MemSetStore) Remove(ctx context.Context, name, val string) (bool, error) {
	found := false
	s.Sets.Compute(name, func(set map[string]bool, loaded bool) (map[string]bool, bool) {
		if !set[val] {
			return set, !loaded
		}
		found = true
		out := maps.Clone(set)
		delete(out, val)
		return out, false
	})
	return found, nil
}

func (s MemSetStore) List(ctx context.Context, name string) ([]string, error) {
	set, ok := s.Sets.Load(name)
	if !ok {
		return []string{}, nil
	}
	return slices.Sorted(maps.Keys(set)), nil
}
