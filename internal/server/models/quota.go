package models

// Quota is the derived used/limit view of an owner's stored bytes. It is
// recomputed on demand and never persisted.
type Quota struct {
	// Used is the sum of sizes over the owner's file records.
	Used int64
	// Limit is the tier allowance in bytes; -1 means unlimited.
	Limit int64
	// Percentage is round(used/limit*100), or 0 when unlimited.
	Percentage int
}

// Unlimited reports whether the quota has no upper bound.
func (q Quota) Unlimited() bool {
	return q.Limit == -1
}
