package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/plans"
	filesrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	foldersrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/folders"
	sharesrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/shares"
)

// -------- test fakes --------

type nopLogger struct{}

func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (l nopLogger) With(args ...any) logging.Logger                  { return l }

type fakeFilesRepo struct {
	items map[string]*models.File

	createErr error
	getErr    error
	deleteErr error
	updateErr error
	sumErr    error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{items: map[string]*models.File{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *file
	f.items[file.ID] = &clone
	return nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	file, ok := f.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *file
	return &clone, nil
}

func (f *fakeFilesRepo) List(ctx context.Context, q filesrepo.ListQuery) ([]*models.File, int64, error) {
	var matched []*models.File
	for _, file := range f.items {
		if file.Owner != q.Owner {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(file.Name), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, file)
	}
	total := int64(len(matched))
	if q.Offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (f *fakeFilesRepo) UpdateFolder(ctx context.Context, id string, folderID *string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	file, ok := f.items[id]
	if !ok {
		return common.ErrNotFound
	}
	file.FolderID = folderID
	return nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeFilesRepo) SumSizeByOwner(ctx context.Context, owner models.Owner) (int64, error) {
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	var used int64
	for _, file := range f.items {
		if file.Owner == owner {
			used += file.Size
		}
	}
	return used, nil
}

type fakeFoldersRepo struct {
	items map[string]*models.Folder

	createErr error
	deleteErr error

	children map[string]int64
}

func newFakeFoldersRepo() *fakeFoldersRepo {
	return &fakeFoldersRepo{items: map[string]*models.Folder{}, children: map[string]int64{}}
}

func (f *fakeFoldersRepo) Create(ctx context.Context, folder *models.Folder) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *folder
	f.items[folder.ID] = &clone
	return nil
}

func (f *fakeFoldersRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	folder, ok := f.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *folder
	return &clone, nil
}

func (f *fakeFoldersRepo) ListByParent(ctx context.Context, owner models.Owner, parentID *string) ([]*models.Folder, error) {
	var result []*models.Folder
	for _, folder := range f.items {
		if folder.Owner != owner {
			continue
		}
		if parentID == nil && folder.ParentID != nil {
			continue
		}
		if parentID != nil && (folder.ParentID == nil || *folder.ParentID != *parentID) {
			continue
		}
		result = append(result, folder)
	}
	return result, nil
}

func (f *fakeFoldersRepo) CountChildren(ctx context.Context, id string) (int64, error) {
	return f.children[id], nil
}

func (f *fakeFoldersRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeSharesRepo struct {
	items map[string]*models.Share // by token

	createErr error
	incErr    error
}

func newFakeSharesRepo() *fakeSharesRepo {
	return &fakeSharesRepo{items: map[string]*models.Share{}}
}

func (f *fakeSharesRepo) Create(ctx context.Context, share *models.Share) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *share
	f.items[share.Token] = &clone
	return nil
}

func (f *fakeSharesRepo) GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Share, error) {
	share, ok := f.items[token]
	if !ok || share.ExpiresAt.Before(now) {
		return nil, common.ErrNotFound
	}
	clone := *share
	return &clone, nil
}

func (f *fakeSharesRepo) IncrementAccessCount(ctx context.Context, id string) error {
	if f.incErr != nil {
		return f.incErr
	}
	for _, share := range f.items {
		if share.ID == id {
			share.AccessCount++
			return nil
		}
	}
	return fmt.Errorf("unexpected rows affected: 0")
}

func (f *fakeSharesRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for token, share := range f.items {
		if share.ExpiresAt.Before(now) {
			delete(f.items, token)
			n++
		}
	}
	return n, nil
}

type fakeRepoManager struct {
	files   *fakeFilesRepo
	folders *fakeFoldersRepo
	shares  *fakeSharesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		files:   newFakeFilesRepo(),
		folders: newFakeFoldersRepo(),
		shares:  newFakeSharesRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository       { return m.files }
func (m *fakeRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository   { return m.folders }
func (m *fakeRepoManager) Shares(db dbx.DBTX) sharesrepo.Repository     { return m.shares }

type fakeBlobStore struct {
	blobs map[string][]byte

	putErr    error
	deleteErr error
	signErr   error

	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string, public bool) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.blobs[path] = data
	return nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, path string, public bool) error {
	f.deleted = append(f.deleted, path)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.blobs, path) // missing path is still ok
	return nil
}

func (f *fakeBlobStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "http://signed/" + path, nil
}

func (f *fakeBlobStore) PublicURL(path string) string {
	return "http://public/" + path
}

// passthroughTx runs fn directly; the fakes have no real transactions.
func passthroughTx(ctx context.Context, _ *sql.DB, _ *sql.TxOptions, fn func(context.Context, dbx.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeResolver struct {
	tier plans.Tier
	err  error
}

func (f *fakeResolver) TierOf(ctx context.Context, owner models.Owner) (plans.Tier, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tier, nil
}

type fakeMembership struct {
	members map[string]map[string]bool
	err     error
}

func (f *fakeMembership) IsMember(ctx context.Context, organizationID, principalID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[organizationID][principalID], nil
}
