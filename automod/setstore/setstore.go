package setstore

import (
	"context"
)

// Named sets of strings. Used for the locked-groups marker and per-account block lists.
type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
	Add(ctx context.Context, name, val string) error
	// returns whether the value was present before removal
	Remove(ctx context.Context, name, val string) (bool, error)
	List(ctx context.Context, name string) ([]string, error)
}

const (
	// groups which have been administratively locked by the bot. Only a marker: the transport's own announcement setting is authoritative.
	SetLockedGroups = "locked-groups"
)

// name of the block list set owned by the given (normalized) account
func BlockListName(owner string) string {
	return "blocked/" + owner
}
