package reports

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// PostgresStore persists reports in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed report store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, normalized_value, entity_type, category, description, reporter, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.Normalized, string(r.EntityType), string(r.Category), r.Description, r.Reporter, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListForEntity(ctx context.Context, normalized string, entityType entity.Type, limit int) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, normalized_value, entity_type, category, description, COALESCE(reporter, ''), created_at
		FROM reports
		WHERE normalized_value = $1 AND entity_type = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, normalized, string(entityType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.Normalized, &r.EntityType, &r.Category, &r.Description, &r.Reporter, &r.CreatedAt); err != nil {
			continue
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CountForEntity(ctx context.Context, normalized string, entityType entity.Type) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reports WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}
