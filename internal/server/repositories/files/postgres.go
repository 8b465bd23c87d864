package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

const fileColumns = `id, name, size, content_type, path, public_url, folder_id, user_id, org_id, tags, description, is_public, created_at, updated_at`

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ownerColumn returns the column holding the owner id for the owner's kind.
func ownerColumn(o models.Owner) string {
	if o.Kind == models.OwnerOrganization {
		return "org_id"
	}
	return "user_id"
}

func ownerArgs(o models.Owner) (userID, orgID sql.NullString) {
	if o.Kind == models.OwnerOrganization {
		return sql.NullString{}, sql.NullString{String: o.ID, Valid: true}
	}
	return sql.NullString{String: o.ID, Valid: true}, sql.NullString{}
}

func ownerFromColumns(userID, orgID sql.NullString) models.Owner {
	if orgID.Valid {
		return models.OrganizationOwner(orgID.String)
	}
	return models.UserOwner(userID.String)
}

// Create inserts the file record. Exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, name, size, content_type, path, public_url, folder_id, user_id, org_id, tags, description, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	tags, err := marshalTags(file.Tags)
	if err != nil {
		return err
	}
	userID, orgID := ownerArgs(file.Owner)

	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.Name, file.Size, file.ContentType, file.Path, file.PublicURL,
		file.FolderID, userID, orgID, tags, file.Description, file.Public,
		file.CreatedAt, file.UpdatedAt)
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

// GetByID returns the file record or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id=$1`

	file, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return file, nil
}

// List returns one page of file records matching the query plus the total
// count for the same predicate.
func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]*models.File, int64, error) {
	where := []string{ownerColumn(q.Owner) + "=$1"}
	args := []any{q.Owner.ID}

	if q.FolderID != nil {
		args = append(args, *q.FolderID)
		where = append(where, fmt.Sprintf("folder_id=$%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(q.Tags) > 0 {
		tags, err := marshalTags(q.Tags)
		if err != nil {
			return nil, 0, err
		}
		args = append(args, tags)
		where = append(where, fmt.Sprintf("tags @> $%d::jsonb", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM files WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		fileColumns, cond, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, file)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// UpdateFolder moves the file to the given folder (nil = root level).
func (r *PostgresRepository) UpdateFolder(ctx context.Context, id string, folderID *string) error {
	query := `UPDATE files SET folder_id=$1, updated_at=now() WHERE id=$2`

	res, err := r.db.ExecContext(ctx, query, folderID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the file record, returning common.ErrNotFound when no row
// matches.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SumSizeByOwner returns the total stored bytes of the owner's files.
func (r *PostgresRepository) SumSizeByOwner(ctx context.Context, owner models.Owner) (int64, error) {
	query := `SELECT COALESCE(SUM(size), 0) FROM files WHERE ` + ownerColumn(owner) + `=$1`

	var used int64
	if err := r.db.QueryRowContext(ctx, query, owner.ID).Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return used, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var (
		item          models.File
		folderID      sql.NullString
		userID, orgID sql.NullString
		tags          []byte
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Size, &item.ContentType, &item.Path,
		&item.PublicURL, &folderID, &userID, &orgID, &tags, &item.Description,
		&item.Public, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if folderID.Valid {
		item.FolderID = &folderID.String
	}
	item.Owner = ownerFromColumns(userID, orgID)
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &item, nil
}
