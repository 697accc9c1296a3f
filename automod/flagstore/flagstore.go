package flagstore

import (
	"context"
)

// Group policy flags, keyed by group identity. An absent key means every flag is off.
type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}

const (
	// delete links posted by non-admins, and kick them if the bot is able to
	FlagAntilink = "antilink"
)

// checks if `flag` is set for `key`
func HasFlag(ctx context.Context, fs FlagStore, key, flag string) (bool, error) {
	l, err := fs.Get(ctx, key)
	if err != nil {
		return false, err
	}
	for _, f := range l {
		if f == flag {
			return true, nil
		}
	}
	return false, nil
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}
