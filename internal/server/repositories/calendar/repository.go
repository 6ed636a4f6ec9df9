package calendar

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.CalendarEntry) (*models.CalendarEntry, error)
	SelectAlarmsBetween(ctx context.Context, from, to time.Time) ([]*models.CalendarEntry, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
