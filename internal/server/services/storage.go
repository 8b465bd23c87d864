package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// UploadInput carries one upload through the pipeline.
type UploadInput struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
	Owner       models.Owner
	FolderID    *string
	Public      bool
	Tags        []string
	Description string
}

// ListInput filters and paginates a file listing for one owner.
type ListInput struct {
	Owner    models.Owner
	FolderID *string
	Search   string
	Tags     []string
	Limit    int
	Offset   int
}

// StorageService owns the upload pipeline and file CRUD. The blob store and
// the metadata store are independent systems; the pipeline keeps them
// consistent with a single compensating action (see Upload).
type StorageService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	blobs        blob.Store
	quota        *QuotaService
	logger       logging.Logger
	signedURLTTL time.Duration
	now          func() time.Time
	withTx       func(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(context.Context, dbx.DBTX) error) error
}

// NewStorageService constructs a StorageService.
func NewStorageService(db *sql.DB, repos repomanager.RepositoryManager, blobs blob.Store,
	quota *QuotaService, logger logging.Logger, signedURLTTL time.Duration) *StorageService {
	return &StorageService{
		db:           db,
		repos:        repos,
		blobs:        blobs,
		quota:        quota,
		logger:       logger,
		signedURLTTL: signedURLTTL,
		now:          time.Now,
		withTx:       dbx.WithTx,
	}
}

// Upload runs the linear upload pipeline: per-file size check, quota check,
// path allocation, blob write, metadata insert. Each step's failure aborts
// all prior side effects; the only compensating action is the blob delete
// when the metadata insert fails, so a file record never exists without its
// blob. The quota check and the writes are not one cross-store transaction:
// concurrent uploads by the same owner may jointly overshoot the limit
// (accepted soft-limit design).
func (s *StorageService) Upload(ctx context.Context, in UploadInput) (*models.File, error) {
	limits := s.quota.Limits(ctx, in.Owner)
	if in.Size > limits.MaxFileSize {
		return nil, common.ErrFileTooLarge
	}

	quota, err := s.quota.GetQuota(ctx, in.Owner)
	if err != nil {
		return nil, err
	}
	if !quota.Unlimited() && quota.Used+in.Size > quota.Limit {
		return nil, common.ErrQuotaExceeded
	}

	if in.FolderID != nil {
		if err := s.checkFolderOwner(ctx, s.db, *in.FolderID, in.Owner); err != nil {
			return nil, err
		}
	}

	path := AllocatePath(in.Owner, in.Name)

	if err := s.blobs.Put(ctx, path, in.Body, in.Size, in.ContentType, in.Public); err != nil {
		return nil, fmt.Errorf("writing blob %s: %w", path, err)
	}

	now := s.now()
	file := &models.File{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Size:        in.Size,
		ContentType: in.ContentType,
		Path:        path,
		FolderID:    in.FolderID,
		Owner:       in.Owner,
		Tags:        in.Tags,
		Description: in.Description,
		Public:      in.Public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Public {
		file.PublicURL = s.blobs.PublicURL(path)
	}

	if err := s.repos.Files(s.db).Create(ctx, file); err != nil {
		// The blob must not outlive a failed metadata insert. The rollback
		// failure is logged, the insert error stays the primary one.
		if delErr := s.blobs.Delete(ctx, path, in.Public); delErr != nil {
			s.logger.Error(ctx, "blob rollback failed",
				"path", path, "owner", in.Owner.ID, "op", "upload", "error", delErr.Error())
		}
		return nil, fmt.Errorf("inserting file record: %w", err)
	}

	return file, nil
}

// Get returns the file record or common.ErrNotFound.
func (s *StorageService) Get(ctx context.Context, id string) (*models.File, error) {
	return s.repos.Files(s.db).GetByID(ctx, id)
}

// List returns one page of the owner's files plus the total count for the
// same filter predicate.
func (s *StorageService) List(ctx context.Context, in ListInput) ([]*models.File, int64, error) {
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit > maxListLimit {
		in.Limit = maxListLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	return s.repos.Files(s.db).List(ctx, files.ListQuery{
		Owner:    in.Owner,
		FolderID: in.FolderID,
		Search:   in.Search,
		Tags:     in.Tags,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
}

// Move places the file into folderID (nil = root level). The target folder
// must exist and belong to the file's owner. The check and the update run in
// one transaction so the folder cannot vanish in between.
func (s *StorageService) Move(ctx context.Context, id string, folderID *string) (*models.File, error) {
	var moved *models.File
	err := s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		file, err := s.repos.Files(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if folderID != nil {
			if err := s.checkFolderOwner(ctx, tx, *folderID, file.Owner); err != nil {
				return err
			}
		}
		if err := s.repos.Files(tx).UpdateFolder(ctx, id, folderID); err != nil {
			return err
		}
		moved, err = s.repos.Files(tx).GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes the metadata record first and then the blob. A failed blob
// delete is logged and does not fail the call: a dangling blob consumes no
// quota once untracked, while a record pointing at nothing would.
func (s *StorageService) Delete(ctx context.Context, id string) error {
	file, err := s.repos.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repos.Files(s.db).Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, file.Path, file.Public); err != nil {
		s.logger.Error(ctx, "blob delete failed",
			"path", file.Path, "owner", file.Owner.ID, "op", "delete", "error", err.Error())
	}
	return nil
}

// DownloadURL returns a URL the caller can fetch the file's bytes from: the
// long-lived public URL for public files, a short-lived signed URL
// otherwise.
func (s *StorageService) DownloadURL(ctx context.Context, file *models.File) (string, error) {
	if file.Public && file.PublicURL != "" {
		return file.PublicURL, nil
	}
	url, err := s.blobs.SignedURL(ctx, file.Path, s.signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("signing download url for %s: %w", file.Path, err)
	}
	return url, nil
}

func (s *StorageService) checkFolderOwner(ctx context.Context, db dbx.DBTX, folderID string, owner models.Owner) error {
	folder, err := s.repos.Folders(db).GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidParent
		}
		return err
	}
	if folder.Owner != owner {
		return common.ErrInvalidParent
	}
	return nil
}
