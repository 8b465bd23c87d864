package folders

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	// ListByParent returns the owner's folders under parentID; nil lists
	// root-level folders.
	ListByParent(ctx context.Context, owner models.Owner, parentID *string) ([]*models.Folder, error)
	// CountChildren counts subfolders plus files directly inside the folder.
	CountChildren(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}
