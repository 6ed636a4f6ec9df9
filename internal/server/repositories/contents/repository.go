package contents

import (
	"context"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Content) (*models.Content, error)
	GetByID(ctx context.Context, id string) (*models.Content, error)
	Update(ctx context.Context, c *models.Content) error
	SetHasAttachment(ctx context.Context, id string, v bool) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Content, error)
	DeleteByOwner(ctx context.Context, ownerID string) ([]*models.Content, error)
}
