package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// PostgresStore persists identity records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed identity store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, r *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, normalized_value, entity_type, name, website, twitter, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.Normalized, string(r.EntityType), r.Name, r.Website, r.Twitter, r.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to add identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, normalized string, entityType entity.Type) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM identities WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType))
	if err != nil {
		return fmt.Errorf("failed to remove identity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, normalized string, entityType entity.Type) (*Record, error) {
	var r Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, normalized_value, entity_type, name, COALESCE(website, ''), COALESCE(twitter, ''), created_at
		FROM identities
		WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType)).Scan(
		&r.ID, &r.Normalized, &r.EntityType, &r.Name, &r.Website, &r.Twitter, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup identity: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, normalized_value, entity_type, name, COALESCE(website, ''), COALESCE(twitter, ''), created_at
		FROM identities
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Normalized, &r.EntityType, &r.Name, &r.Website, &r.Twitter, &r.CreatedAt); err != nil {
			continue
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}
