package countstore

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// In-process CountStore. Increments on the same key are serialized; different keys proceed independently.
type MemCountStore struct {
	Counts *xsync.MapOf[string, int]
}

var _ CountStore = (*MemCountStore)(nil)

func NewMemCountStore() MemCountStore {
	return MemCountStore{
		Counts: xsync.NewMapOf[string, int](),
	}
}

func (s MemCountStore) GetCount(ctx context.Context, name, val string) (int, error) {
	v, ok := s.Counts.Load(counterKey(name, val))
	if !ok {
		return 0, nil
	}
	return v, nil
}

func (s MemCountStore) Increment(ctx context.Context, name, val string) (int, error) {
	v, _ := s.Counts.Compute(counterKey(name, val), func(old int, loaded bool) (int, bool) {
		return old + 1, false
	})
	return v, nil
}

func (s MemCountStore) Reset(ctx context.Context, name, val string) error {
	s.Counts.Delete(counterKey(name, val))
	return nil
}

func (s MemCountStore) Exists(ctx context.Context, name, val string) (bool, error) {
	_, ok := s.Counts.Load(counterKey(name, val))
	return ok, nil
}
