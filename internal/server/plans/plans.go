// Package plans defines plan tiers, their storage limits, and the
// collaborator interfaces that resolve an owner's tier and organization
// membership. The authoritative implementations belong to the billing and
// organization subsystems; static ones are provided for development.
package plans

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Tier is a plan level determining size and quota limits.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Limits holds the per-file size cap and the total storage allowance of a
// tier, both in bytes. A StorageLimit of -1 means unlimited.
type Limits struct {
	MaxFileSize  int64
	StorageLimit int64
}

// Deployment constants; the billing subsystem owns the real values.
var tierLimits = map[Tier]Limits{
	TierFree:       {MaxFileSize: 25 << 20, StorageLimit: 1 << 30},
	TierPro:        {MaxFileSize: 500 << 20, StorageLimit: 50 << 30},
	TierEnterprise: {MaxFileSize: 5 << 30, StorageLimit: -1},
}

// LimitsFor returns the limits of the given tier. Unknown tiers fall back
// to the free tier so that a bad value never fails open.
func LimitsFor(tier Tier) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// Resolver reports the current plan tier of an owner.
type Resolver interface {
	TierOf(ctx context.Context, owner models.Owner) (Tier, error)
}

// MembershipResolver reports whether a principal belongs to an organization.
type MembershipResolver interface {
	IsMember(ctx context.Context, organizationID, principalID string) (bool, error)
}

// StaticResolver resolves every owner to a fixed tier.
type StaticResolver struct {
	Tier Tier
}

func (r *StaticResolver) TierOf(ctx context.Context, owner models.Owner) (Tier, error) {
	return r.Tier, nil
}

// StaticMembership resolves membership from an in-memory map of
// organization id to member ids.
type StaticMembership struct {
	Members map[string][]string
}

func (r *StaticMembership) IsMember(ctx context.Context, organizationID, principalID string) (bool, error) {
	for _, id := range r.Members[organizationID] {
		if id == principalID {
			return true, nil
		}
	}
	return false, nil
}
