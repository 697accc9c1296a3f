package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
)

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

// fetches and decodes a JSON cache entry. returns false on a cache miss.
func GetJSON(ctx context.Context, cs CacheStore, name, key string, out any) (bool, error) {
	raw, err := cs.Get(ctx, name, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", name, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, cs CacheStore, name, key string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return cs.Set(ctx, name, key, string(b))
}
