package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// PostgresStore persists listing entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed listing store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AddBlacklist(ctx context.Context, e *BlacklistEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklist_entries (id, normalized_value, entity_type, category, source, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Normalized, string(e.EntityType), string(e.Category), e.Source, e.Reason, e.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveBlacklist(ctx context.Context, normalized string, entityType entity.Type) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM blacklist_entries WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType))
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) LookupBlacklist(ctx context.Context, normalized string, entityType entity.Type) (*BlacklistEntry, error) {
	var e BlacklistEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, normalized_value, entity_type, category, source, COALESCE(reason, ''), created_at
		FROM blacklist_entries
		WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType)).Scan(
		&e.ID, &e.Normalized, &e.EntityType, &e.Category, &e.Source, &e.Reason, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup blacklist entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListBlacklist(ctx context.Context, limit, offset int) ([]*BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, normalized_value, entity_type, category, source, COALESCE(reason, ''), created_at
		FROM blacklist_entries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.ID, &e.Normalized, &e.EntityType, &e.Category, &e.Source, &e.Reason, &e.CreatedAt); err != nil {
			continue
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (s *PostgresStore) AddWhitelist(ctx context.Context, e *WhitelistEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whitelist_entries (id, normalized_value, entity_type, source, verified_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Normalized, string(e.EntityType), e.Source, e.VerifiedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to add whitelist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveWhitelist(ctx context.Context, normalized string, entityType entity.Type) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM whitelist_entries WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType))
	if err != nil {
		return fmt.Errorf("failed to remove whitelist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) LookupWhitelist(ctx context.Context, normalized string, entityType entity.Type) (*WhitelistEntry, error) {
	var e WhitelistEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, normalized_value, entity_type, source, verified_at
		FROM whitelist_entries
		WHERE normalized_value = $1 AND entity_type = $2
	`, normalized, string(entityType)).Scan(
		&e.ID, &e.Normalized, &e.EntityType, &e.Source, &e.VerifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup whitelist entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListWhitelist(ctx context.Context, limit, offset int) ([]*WhitelistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, normalized_value, entity_type, source, verified_at
		FROM whitelist_entries
		ORDER BY verified_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*WhitelistEntry
	for rows.Next() {
		var e WhitelistEntry
		if err := rows.Scan(&e.ID, &e.Normalized, &e.EntityType, &e.Source, &e.VerifiedAt); err != nil {
			continue
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
