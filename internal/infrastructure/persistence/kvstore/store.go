// Package kvstore implements the durable, per-user, expiring key/value
// storage the progress engine persists into between sessions. Each logical
// field is an independent record so a corrupt field can never invalidate its
// neighbors. Namespacing by user is mandatory on every key - there is no way
// to read or write a record without naming its owner.
//
// Two backends exist: a local SQLite file (the default - the engine's
// equivalent of browser-local storage) and Redis with native per-key TTL for
// deployments where the UI shell runs against a shared cache.
package kvstore

import (
	"context"
	"time"
)

// DefaultTTL is how long persisted records live without being rewritten.
const DefaultTTL = 30 * 24 * time.Hour

// Store is durable, expiring, user-namespaced key/value storage.
//
// Read follows the degraded-read contract: a missing record, an expired
// record, and an undecodable record all report absent (false) - the caller
// falls back to the field's default and continues. Read never returns an
// error to the caller.
//
// Write serializes the value and stores it with the configured TTL. Write
// errors (quota, I/O) are returned so the caller can log them; callers treat
// the in-memory state as authoritative and continue.
type Store interface {
	Write(ctx context.Context, userID, key string, value interface{}) error
	Read(ctx context.Context, userID, key string, dest interface{}) bool
	Delete(ctx context.Context, userID, key string) error

	// PurgeExpired removes expired records and returns how many were
	// dropped. Backends with native expiry may report zero.
	PurgeExpired(ctx context.Context) (int, error)

	Close() error
}
