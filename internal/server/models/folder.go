package models

import "time"

// Folder is a named grouping node. Folders form a tree per owner; the
// parent chain is acyclic because a folder is only ever created with a
// parent that already exists.
type Folder struct {
	ID       string
	Name     string
	ParentID *string
	// Owner must match the parent's owner when a parent is set.
	Owner     Owner
	CreatedAt time.Time
	UpdatedAt time.Time
}
