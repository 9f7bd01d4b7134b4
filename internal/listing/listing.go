// Package listing manages the curated blacklist and whitelist and exposes
// both as signal providers.
package listing

import (
	"context"
	"errors"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

var (
	// ErrNotFound is returned when removing an entry that doesn't exist.
	ErrNotFound = errors.New("listing: entry not found")

	// ErrDuplicate is returned when adding an entry that already exists.
	ErrDuplicate = errors.New("listing: entry already exists")
)

// BlacklistEntry is a curated record of a known-bad entity.
type BlacklistEntry struct {
	ID         string                `json:"id"`
	Normalized string                `json:"normalizedValue"`
	EntityType entity.Type           `json:"entityType"`
	Category   signal.ThreatCategory `json:"category"`
	Source     string                `json:"source"`
	Reason     string                `json:"reason,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// WhitelistEntry is a curated record of a verified-good entity.
type WhitelistEntry struct {
	ID         string      `json:"id"`
	Normalized string      `json:"normalizedValue"`
	EntityType entity.Type `json:"entityType"`
	Source     string      `json:"source"`
	VerifiedAt time.Time   `json:"verifiedAt"`
}

// Store persists both lists. Lookup methods return (nil, nil) on a miss so
// callers can distinguish "not listed" from a storage failure.
type Store interface {
	AddBlacklist(ctx context.Context, e *BlacklistEntry) error
	RemoveBlacklist(ctx context.Context, normalized string, entityType entity.Type) error
	LookupBlacklist(ctx context.Context, normalized string, entityType entity.Type) (*BlacklistEntry, error)
	ListBlacklist(ctx context.Context, limit, offset int) ([]*BlacklistEntry, error)

	AddWhitelist(ctx context.Context, e *WhitelistEntry) error
	RemoveWhitelist(ctx context.Context, normalized string, entityType entity.Type) error
	LookupWhitelist(ctx context.Context, normalized string, entityType entity.Type) (*WhitelistEntry, error)
	ListWhitelist(ctx context.Context, limit, offset int) ([]*WhitelistEntry, error)
}
