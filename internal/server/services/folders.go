package services

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// maxBreadcrumbDepth caps the parent-chain walk so corrupt data can never
// loop forever.
const maxBreadcrumbDepth = 1000

// FolderService manages the per-owner folder tree.
type FolderService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	now    func() time.Time
	withTx func(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(context.Context, dbx.DBTX) error) error
}

// NewFolderService constructs a FolderService.
func NewFolderService(db *sql.DB, repos repomanager.RepositoryManager) *FolderService {
	return &FolderService{db: db, repos: repos, now: time.Now, withTx: dbx.WithTx}
}

// Create adds a folder under parentID (nil = root level). The parent must
// exist and belong to the same owner, otherwise common.ErrInvalidParent.
func (s *FolderService) Create(ctx context.Context, name string, owner models.Owner, parentID *string) (*models.Folder, error) {
	if parentID != nil {
		parent, err := s.repos.Folders(s.db).GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrInvalidParent
			}
			return nil, err
		}
		if parent.Owner != owner {
			return nil, common.ErrInvalidParent
		}
	}

	now := s.now()
	folder := &models.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		ParentID:  parentID,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Folders(s.db).Create(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Get returns the folder record or common.ErrNotFound.
func (s *FolderService) Get(ctx context.Context, id string) (*models.Folder, error) {
	return s.repos.Folders(s.db).GetByID(ctx, id)
}

// List returns the owner's folders under parentID. A nil parentID lists the
// root level; there is no separate "null parent" form at this boundary.
func (s *FolderService) List(ctx context.Context, owner models.Owner, parentID *string) ([]*models.Folder, error) {
	return s.repos.Folders(s.db).ListByParent(ctx, owner, parentID)
}

// Breadcrumb resolves the folder chain from the root to folderID, walking
// parent pointers. The walk fails closed with common.ErrCorruptHierarchy
// once it exceeds maxBreadcrumbDepth.
func (s *FolderService) Breadcrumb(ctx context.Context, folderID string) ([]*models.Folder, error) {
	var chain []*models.Folder

	id := &folderID
	for depth := 0; id != nil; depth++ {
		if depth >= maxBreadcrumbDepth {
			return nil, common.ErrCorruptHierarchy
		}
		folder, err := s.repos.Folders(s.db).GetByID(ctx, *id)
		if err != nil {
			return nil, err
		}
		chain = append(chain, folder)
		id = folder.ParentID
	}

	slices.Reverse(chain)
	return chain, nil
}

// Delete removes an empty folder. Folders still holding files or subfolders
// are rejected with common.ErrFolderNotEmpty rather than cascaded. The
// emptiness check and the delete run in one transaction.
func (s *FolderService) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Folders(tx).GetByID(ctx, id); err != nil {
			return err
		}
		n, err := s.repos.Folders(tx).CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.ErrFolderNotEmpty
		}
		return s.repos.Folders(tx).Delete(ctx, id)
	})
}
