// Package tilerecord remembers when a tile was last served to a client.
// The core treats it purely as a key-value timestamp store.
package tilerecord

import (
	"context"
	"time"
)

// Key uniquely identifies a served tile per layer and client.
type Key struct {
	X, Y     int64
	Z        int
	Layer    string
	ClientID string
}

type Repository interface {
	// Find returns the last-served timestamp for a key, reporting whether
	// a record exists.
	Find(ctx context.Context, k Key) (time.Time, bool, error)
	// Upsert records that a tile was served at the given time.
	Upsert(ctx context.Context, k Key, at time.Time) error
}
