package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/plans"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// QuotaService computes the used/limit/percentage view of an owner's stored
// bytes against their plan tier. It has no side effects and is called before
// every upload.
type QuotaService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	plans  plans.Resolver
	logger logging.Logger
}

// NewQuotaService constructs a QuotaService.
func NewQuotaService(db *sql.DB, repos repomanager.RepositoryManager, resolver plans.Resolver, logger logging.Logger) *QuotaService {
	return &QuotaService{db: db, repos: repos, plans: resolver, logger: logger}
}

// GetQuota sums the owner's stored file sizes and relates them to the
// tier's allowance. A limit of -1 means unlimited and forces percentage 0.
func (s *QuotaService) GetQuota(ctx context.Context, owner models.Owner) (*models.Quota, error) {
	used, err := s.repos.Files(s.db).SumSizeByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("summing stored bytes: %w", err)
	}

	limits := s.Limits(ctx, owner)
	quota := &models.Quota{Used: used, Limit: limits.StorageLimit}
	if quota.Limit > 0 {
		quota.Percentage = int(math.Round(float64(used) / float64(quota.Limit) * 100))
	}
	return quota, nil
}

// Limits resolves the owner's tier and returns its limits. When the tier
// cannot be resolved the owner falls back to free, the most restrictive
// tier, rather than failing open.
func (s *QuotaService) Limits(ctx context.Context, owner models.Owner) plans.Limits {
	tier, err := s.plans.TierOf(ctx, owner)
	if err != nil {
		s.logger.Warn(ctx, "plan tier resolution failed, defaulting to free",
			"owner", owner.ID, "kind", string(owner.Kind), "error", err.Error())
		tier = plans.TierFree
	}
	return plans.LimitsFor(tier)
}
