package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

const folderColumns = `id, name, parent_id, user_id, org_id, created_at, updated_at`

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

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

// Create inserts the folder record. Exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (id, name, parent_id, user_id, org_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	userID, orgID := ownerArgs(folder.Owner)

	res, err := r.db.ExecContext(ctx, query,
		folder.ID, folder.Name, folder.ParentID, userID, orgID, folder.CreatedAt, folder.UpdatedAt)
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

// GetByID returns the folder record or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id=$1`

	folder, err := scanFolder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}
	return folder, nil
}

// ListByParent returns the owner's folders under parentID, name-ordered.
// A nil parentID lists root-level folders.
func (r *PostgresRepository) ListByParent(ctx context.Context, owner models.Owner, parentID *string) ([]*models.Folder, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		query := `SELECT ` + folderColumns + ` FROM folders WHERE ` + ownerColumn(owner) + `=$1 AND parent_id IS NULL ORDER BY name`
		rows, err = r.db.QueryContext(ctx, query, owner.ID)
	} else {
		query := `SELECT ` + folderColumns + ` FROM folders WHERE ` + ownerColumn(owner) + `=$1 AND parent_id=$2 ORDER BY name`
		rows, err = r.db.QueryContext(ctx, query, owner.ID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountChildren counts the subfolders and files directly inside the folder.
func (r *PostgresRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	query := `
		SELECT (SELECT COUNT(*) FROM folders WHERE parent_id=$1)
		     + (SELECT COUNT(*) FROM files WHERE folder_id=$1);
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count folder children: %w", err)
	}
	return n, nil
}

// Delete removes the folder record, returning common.ErrNotFound when no
// row matches.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id=$1`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*models.Folder, error) {
	var (
		item          models.Folder
		parentID      sql.NullString
		userID, orgID sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Name, &parentID, &userID, &orgID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		item.ParentID = &parentID.String
	}
	if orgID.Valid {
		item.Owner = models.OrganizationOwner(orgID.String)
	} else {
		item.Owner = models.UserOwner(userID.String)
	}
	return &item, nil
}
