package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// PostgresRepository implements share storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the share record. The token carries a unique constraint;
// exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, share *models.Share) error {
	query := `
		INSERT INTO shares (id, token, file_id, expires_at, password_hash, access_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	res, err := r.db.ExecContext(ctx, query,
		share.ID, share.Token, share.FileID, share.ExpiresAt, share.PasswordHash,
		share.AccessCount, share.CreatedBy, share.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// GetActiveByToken returns the share matching token with expires_at >= now,
// or common.ErrNotFound.
func (r *PostgresRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Share, error) {
	query := `
		SELECT id, token, file_id, expires_at, password_hash, access_count, created_by, created_at
		FROM shares WHERE token=$1 AND expires_at >= $2
	`
	var item models.Share
	err := r.db.QueryRowContext(ctx, query, token, now).Scan(
		&item.ID, &item.Token, &item.FileID, &item.ExpiresAt, &item.PasswordHash,
		&item.AccessCount, &item.CreatedBy, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select share: %w", err)
	}
	return &item, nil
}

// IncrementAccessCount bumps access_count by one. Exactly one row must be
// affected.
func (r *PostgresRepository) IncrementAccessCount(ctx context.Context, id string) error {
	query := `UPDATE shares SET access_count = access_count + 1 WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// DeleteExpired removes shares whose expiry is in the past and reports how
// many rows went away.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
