// Package identity maintains a registry of known legitimate entities and
// exposes it as a signal provider for addresses.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
)

var (
	// ErrNotFound is returned when removing a record that doesn't exist.
	ErrNotFound = errors.New("identity: record not found")

	// ErrDuplicate is returned when registering an already-known entity.
	ErrDuplicate = errors.New("identity: record already exists")
)

// Record links an entity to a verified real-world identity.
type Record struct {
	ID         string      `json:"id"`
	Normalized string      `json:"normalizedValue"`
	EntityType entity.Type `json:"entityType"`
	Name       string      `json:"name"`
	Website    string      `json:"website,omitempty"`
	Twitter    string      `json:"twitter,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Store persists identity records. Lookup returns (nil, nil) on a miss.
type Store interface {
	Add(ctx context.Context, r *Record) error
	Remove(ctx context.Context, normalized string, entityType entity.Type) error
	Lookup(ctx context.Context, normalized string, entityType entity.Type) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]*Record, error)
}
