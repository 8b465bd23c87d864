package models

import "time"

// File describes one stored blob and its metadata record. The record is
// created atomically with the blob by the upload pipeline and destroyed
// together with it (best effort on the blob side).
type File struct {
	ID   string
	Name string
	// Size is the blob size in bytes; never negative.
	Size        int64
	ContentType string
	// Path is the object-storage key of the blob, unique across the store.
	Path string
	// PublicURL is set only for public files.
	PublicURL string
	// FolderID places the file in a folder owned by the same owner; nil
	// means the file sits at the root level.
	FolderID    *string
	Owner       Owner
	Tags        []string
	Description string
	Public      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
