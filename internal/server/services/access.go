package services

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/plans"
)

// Guard decides whether a principal may read or delete a file. It answers
// with booleans only and never errors; translating "no" into 403 versus 404
// is the caller's policy, not the guard's.
type Guard struct {
	members plans.MembershipResolver
	logger  logging.Logger
}

// NewGuard constructs a Guard.
func NewGuard(members plans.MembershipResolver, logger logging.Logger) *Guard {
	return &Guard{members: members, logger: logger}
}

// CanActFor reports whether the principal may act on behalf of the owner:
// the principal itself for user owners, a current member for organization
// owners. Membership is looked up on every call, never cached, so a
// revocation is visible on the next check.
func (g *Guard) CanActFor(ctx context.Context, owner models.Owner, principalID string) bool {
	if owner.IsZero() || principalID == "" {
		return false
	}
	switch owner.Kind {
	case models.OwnerUser:
		return owner.ID == principalID
	case models.OwnerOrganization:
		ok, err := g.members.IsMember(ctx, owner.ID, principalID)
		if err != nil {
			g.logger.Warn(ctx, "membership lookup failed",
				"organization", owner.ID, "principal", principalID, "error", err.Error())
			return false
		}
		return ok
	}
	return false
}

// CanAccess reports whether the principal may read the file.
func (g *Guard) CanAccess(ctx context.Context, file *models.File, principalID string) bool {
	if file == nil {
		return false
	}
	return g.CanActFor(ctx, file.Owner, principalID)
}

// CanDelete currently mirrors CanAccess; kept as a separate seam so the
// policies can diverge without touching callers.
func (g *Guard) CanDelete(ctx context.Context, file *models.File, principalID string) bool {
	return g.CanAccess(ctx, file, principalID)
}
