package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	MarkDeleted(ctx context.Context, id string, at time.Time) error
	SelectPurgeable(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]*models.Account, error)
	Delete(ctx context.Context, id string) error
}
