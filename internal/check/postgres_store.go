package check

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// PostgresStore persists search counters in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed search counter store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RecordSearch(ctx context.Context, normalized string, entityType entity.Type) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO entity_stats (normalized_value, entity_type, times_searched, last_searched_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (normalized_value, entity_type)
		DO UPDATE SET
			times_searched = entity_stats.times_searched + 1,
			last_searched_at = NOW()
		RETURNING times_searched
	`, normalized, string(entityType)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to record search: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) TimesSearched(ctx context.Context, normalized string, entityType entity.Type) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT times_searched FROM entity_stats
		WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType)).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read search count: %w", err)
	}
	return count, nil
}
