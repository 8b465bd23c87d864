package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// ListQuery filters and paginates a file listing. Owner is mandatory;
// FolderID nil means "any folder". Search is a case-insensitive substring
// match on the name; Tags means "has all of the given tags".
type ListQuery struct {
	Owner    models.Owner
	FolderID *string
	Search   string
	Tags     []string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, q ListQuery) ([]*models.File, int64, error)
	UpdateFolder(ctx context.Context, id string, folderID *string) error
	Delete(ctx context.Context, id string) error
	SumSizeByOwner(ctx context.Context, owner models.Owner) (int64, error)
}
