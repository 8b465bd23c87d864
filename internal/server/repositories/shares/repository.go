package shares

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.Share) error
	// GetActiveByToken returns the non-expired share matching the token.
	// Expired shares do not match; common.ErrNotFound is returned for both
	// a missing and an expired token.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Share, error)
	IncrementAccessCount(ctx context.Context, id string) error
	// DeleteExpired removes shares past their expiry. Storage hygiene only;
	// correctness never depends on it.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
