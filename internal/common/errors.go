// Package common defines shared constants and sentinel errors used across
// the storage engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Upload validation errors.
	ErrFileTooLarge  = errors.New("file too large")
	ErrQuotaExceeded = errors.New("quota exceeded")

	// Folder tree errors.
	ErrInvalidParent    = errors.New("invalid parent folder")
	ErrFolderNotEmpty   = errors.New("folder not empty")
	ErrCorruptHierarchy = errors.New("corrupt folder hierarchy")

	// Share access errors.
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
