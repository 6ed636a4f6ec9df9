package purges

import (
	"context"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

type Repository interface {
	Enqueue(ctx context.Context, ownerType, ownerID, step, lastErr string) error
	SelectPending(ctx context.Context, limit int) ([]*models.PurgeStep, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, msg string, giveUp bool) error
}
