package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/plans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shareFixture struct {
	repos  *fakeRepoManager
	blobs  *fakeBlobStore
	shares *ShareService
	clock  time.Time
}

func newShareFixture() *shareFixture {
	repos := newFakeRepoManager()
	blobs := newFakeBlobStore()
	quota := NewQuotaService(nil, repos, &fakeResolver{tier: plans.TierFree}, nopLogger{})
	storage := NewStorageService(nil, repos, blobs, quota, nopLogger{}, 15*time.Minute)
	storage.withTx = passthroughTx
	shares := NewShareService(nil, repos, storage, "https://files.example.com/", nopLogger{})

	fx := &shareFixture{repos: repos, blobs: blobs, shares: shares,
		clock: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	shares.now = func() time.Time { return fx.clock }
	return fx
}

func (fx *shareFixture) addFile(id string) *models.File {
	file := &models.File{ID: id, Name: id + ".txt", Path: "users/u1/" + id + ".txt",
		Owner: models.UserOwner("u1"), Size: 10}
	fx.repos.files.items[id] = file
	return file
}

func TestShareCreate_Defaults(t *testing.T) {
	fx := newShareFixture()
	fx.addFile("f1")

	created, err := fx.shares.Create(context.Background(), CreateShareInput{FileID: "f1", CreatedBy: "u1"})
	require.NoError(t, err)

	assert.Len(t, created.Share.Token, 32)
	assert.Equal(t, fx.clock.Add(24*time.Hour), created.Share.ExpiresAt)
	assert.Empty(t, created.Share.PasswordHash)
	assert.Equal(t, "https://files.example.com/s/"+created.Share.Token, created.URL)
}

func TestShareCreate_UnknownFile(t *testing.T) {
	fx := newShareFixture()
	_, err := fx.shares.Create(context.Background(), CreateShareInput{FileID: "missing", CreatedBy: "u1"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestShareCreate_TokensDiffer(t *testing.T) {
	fx := newShareFixture()
	fx.addFile("f1")

	a, err := fx.shares.Create(context.Background(), CreateShareInput{FileID: "f1", CreatedBy: "u1"})
	require.NoError(t, err)
	b, err := fx.shares.Create(context.Background(), CreateShareInput{FileID: "f1", CreatedBy: "u1"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Share.Token, b.Share.Token)
}

func TestShareAccess_CountsAndSignsURL(t *testing.T) {
	fx := newShareFixture()
	file := fx.addFile("f1")

	created, err := fx.shares.Create(context.Background(), CreateShareInput{FileID: "f1", CreatedBy: "u1"})
	require.NoError(t, err)

	got, err := fx.shares.Access(context.Background(), created.Share.Token, "")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.File.ID)
	assert.Equal(t, "http://signed/"+file.Path, got.URL)
	assert.Equal(t, int64(1), fx.repos.shares.items[created.Share.Token].AccessCount)

	_, err = fx.shares.Access(context.Background(), created.Share.Token, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fx.repos.shares.items[created.Share.Token].AccessCount)
}

func TestShareAccess_ExpiryIsNotFound(t *testing.T) {
	fx := newShareFixture()
	fx.addFile("f1")

	created, err := fx.shares.Create(context.Background(), CreateShareInput{
		FileID: "f1", CreatedBy: "u1", ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	// still valid one second before expiry
	fx.clock = fx.clock.Add(time.Hour - time.Second)
	_, err = fx.shares.Access(context.Background(), created.Share.Token, "")
	require.NoError(t, err)

	// indistinguishable from an unknown token afterwards
	fx.clock = fx.clock.Add(2 * time.Second)
	_, err = fx.shares.Access(context.Background(), created.Share.Token, "")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = fx.shares.Access(context.Background(), "never-issued", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestShareAccess_PasswordFlow(t *testing.T) {
	fx := newShareFixture()
	fx.addFile("f1")

	created, err := fx.shares.Create(context.Background(), CreateShareInput{
		FileID: "f1", CreatedBy: "u1", Password: "s3cret",
	})
	require.NoError(t, err)
	token := created.Share.Token
	assert.NotEmpty(t, created.Share.PasswordHash)
	assert.NotContains(t, string(created.Share.PasswordHash), "s3cret")

	_, err = fx.shares.Access(context.Background(), token, "")
	assert.ErrorIs(t, err, common.ErrPasswordRequired)

	_, err = fx.shares.Access(context.Background(), token, "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidPassword)

	// failed attempts never count as accesses
	assert.Equal(t, int64(0), fx.repos.shares.items[token].AccessCount)

	got, err := fx.shares.Access(context.Background(), token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "f1", got.File.ID)
	assert.Equal(t, int64(1), fx.repos.shares.items[token].AccessCount)
}

func TestShareCreate_SweepsExpiredShares(t *testing.T) {
	fx := newShareFixture()
	fx.addFile("f1")

	old, err := fx.shares.Create(context.Background(), CreateShareInput{
		FileID: "f1", CreatedBy: "u1", ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	fx.clock = fx.clock.Add(2 * time.Hour)
	_, err = fx.shares.Create(context.Background(), CreateShareInput{FileID: "f1", CreatedBy: "u1"})
	require.NoError(t, err)

	_, ok := fx.repos.shares.items[old.Share.Token]
	assert.False(t, ok, "expired share should be swept on the next create")
}

func TestShareAccess_FileDeletedAfterIssue(t *testing.T) {
	fx := newShareFixture()
	fx.addFile("f1")

	created, err := fx.shares.Create(context.Background(), CreateShareInput{FileID: "f1", CreatedBy: "u1"})
	require.NoError(t, err)

	delete(fx.repos.files.items, "f1")
	_, err = fx.shares.Access(context.Background(), created.Share.Token, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
