package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultShareTTL = 24 * time.Hour
	// shareTokenBytes is the entropy of a share token: 16 random bytes,
	// 128 bits, 32 hex characters on the wire.
	shareTokenBytes = 16
)

// CreateShareInput describes a new share for a file.
type CreateShareInput struct {
	FileID    string
	CreatedBy string
	// ExpiresIn defaults to 24h when zero.
	ExpiresIn time.Duration
	// Password, when set, gates access; only its bcrypt hash is stored.
	Password string
}

// CreatedShare is the result of issuing a share.
type CreatedShare struct {
	Share *models.Share
	URL   string
}

// SharedFile is what a share consumer receives: the file metadata plus a
// short-lived download URL.
type SharedFile struct {
	File *models.File
	URL  string
}

// ShareService issues and consumes share tokens. The clock is injected so
// expiry is deterministically testable.
type ShareService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	storage *StorageService
	baseURL string
	logger  logging.Logger
	now     func() time.Time
}

// NewShareService constructs a ShareService. baseURL is the external URL
// share links are built against.
func NewShareService(db *sql.DB, repos repomanager.RepositoryManager, storage *StorageService, baseURL string, logger logging.Logger) *ShareService {
	return &ShareService{db: db, repos: repos, storage: storage, baseURL: baseURL, logger: logger, now: time.Now}
}

// Create issues a share token for the file. The token is never derivable
// from the file; the password, if any, is stored only as a bcrypt hash.
func (s *ShareService) Create(ctx context.Context, in CreateShareInput) (*CreatedShare, error) {
	if _, err := s.repos.Files(s.db).GetByID(ctx, in.FileID); err != nil {
		return nil, err
	}

	token, err := common.MakeRandHexString(shareTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating share token: %w", err)
	}

	ttl := in.ExpiresIn
	if ttl <= 0 {
		ttl = defaultShareTTL
	}

	now := s.now()

	// There is no background job; expired shares are swept here, keeping
	// the table bounded. A failed sweep never blocks issuing the share.
	if _, err := s.repos.Shares(s.db).DeleteExpired(ctx, now); err != nil {
		s.logger.Warn(ctx, "expired share sweep failed", "error", err.Error())
	}

	share := &models.Share{
		ID:        uuid.NewString(),
		Token:     token,
		FileID:    in.FileID,
		ExpiresAt: now.Add(ttl),
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing share password: %w", err)
		}
		share.PasswordHash = hash
	}

	if err := s.repos.Shares(s.db).Create(ctx, share); err != nil {
		return nil, err
	}

	return &CreatedShare{
		Share: share,
		URL:   strings.TrimSuffix(s.baseURL, "/") + "/s/" + token,
	}, nil
}

// Access consumes a share token. Expired and missing tokens are treated
// identically (common.ErrNotFound). Password-protected shares require the
// correct password; bcrypt comparison resists timing attacks. On success
// the access counter is incremented and the underlying file is returned
// with a download URL.
func (s *ShareService) Access(ctx context.Context, token, password string) (*SharedFile, error) {
	share, err := s.repos.Shares(s.db).GetActiveByToken(ctx, token, s.now())
	if err != nil {
		return nil, err
	}

	if len(share.PasswordHash) > 0 {
		if password == "" {
			return nil, common.ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword(share.PasswordHash, []byte(password)); err != nil {
			return nil, common.ErrInvalidPassword
		}
	}

	file, err := s.repos.Files(s.db).GetByID(ctx, share.FileID)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Shares(s.db).IncrementAccessCount(ctx, share.ID); err != nil {
		return nil, fmt.Errorf("counting share access: %w", err)
	}

	url, err := s.storage.DownloadURL(ctx, file)
	if err != nil {
		return nil, err
	}
	return &SharedFile{File: file, URL: url}, nil
}
