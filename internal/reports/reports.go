// Package reports collects user-submitted fraud reports and feeds the
// per-entity report counters surfaced in check responses.
package reports

import (
	"context"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/signal"
)

// Report is one user's fraud report about an entity.
type Report struct {
	ID          string                `json:"id"`
	Normalized  string                `json:"normalizedValue"`
	EntityType  entity.Type           `json:"entityType"`
	Category    signal.ThreatCategory `json:"category"`
	Description string                `json:"description"`
	Reporter    string                `json:"reporter,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// Store persists reports.
type Store interface {
	Create(ctx context.Context, r *Report) error
	ListForEntity(ctx context.Context, normalized string, entityType entity.Type, limit int) ([]*Report, error)
	CountForEntity(ctx context.Context, normalized string, entityType entity.Type) (int64, error)
}
