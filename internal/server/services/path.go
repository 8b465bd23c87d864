// Package services contains the business logic of the storage engine: quota
// calculation, the upload pipeline, folder tree management, share issuing
// and the access control guard.
package services

import (
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

// AllocatePath derives a collision-free object-storage key for a new
// upload: the owner's namespace segment, a fresh random identifier, and the
// original file extension. A v4 uuid carries 122 random bits, so paths are
// never reused in practice.
func AllocatePath(owner models.Owner, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return owner.Namespace() + "/" + uuid.NewString() + ext
}
