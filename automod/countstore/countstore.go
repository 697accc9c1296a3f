package countstore

import (
	"context"
	"fmt"
)

// Per-key integer counters. Used to track warnings issued to a participant in a group.
//
// Counters are created lazily at zero and only ever go up, until removed with Reset.
type CountStore interface {
	GetCount(ctx context.Context, name, val string) (int, error)
	// increments the counter and returns the new value
	Increment(ctx context.Context, name, val string) (int, error)
	// removes the counter entirely (absent, not zero)
	Reset(ctx context.Context, name, val string) error
	// whether a counter exists at all
	Exists(ctx context.Context, name, val string) (bool, error)
}

func counterKey(name, val string) string {
	return fmt.Sprintf("%s/%s", name, val)
}
