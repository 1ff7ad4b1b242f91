package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// KVStore is the persistence boundary for decks, users and sessions.
// Implementations return ErrNotFound for missing keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

func getJSON(ctx context.Context, store KVStore, key string, dst any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func putJSON(ctx context.Context, store KVStore, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Put(ctx, key, raw)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
