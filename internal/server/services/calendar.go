package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CalendarInput is a new calendar entry for a pet. A nil AlarmAt schedules
// no alarm.
type CalendarInput struct {
	ScheduledAt time.Time
	AlarmAt     *time.Time
	Text        string
}

// CalendarService writes calendar entries for the pets of their owner.
type CalendarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCalendarService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *CalendarService {
	return &CalendarService{
		db:          db,
		repomanager: rm,
		logger:      logger.With("module", "calendar"),
	}
}

// Schedule adds an entry to the calendar of pet petID. The pet must exist
// and belong to ownerID; the alarm may not be later than the event.
func (s *CalendarService) Schedule(ctx context.Context, ownerID, petID string, in CalendarInput) (*models.CalendarEntry, error) {
	if in.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", common.ErrorValidation)
	}
	if in.AlarmAt != nil && in.AlarmAt.After(in.ScheduledAt) {
		return nil, fmt.Errorf("%w: alarm is after the scheduled time", common.ErrorValidation)
	}

	if _, err := findOwnedContent(ctx, s.repomanager.Contents(s.db), ownerID, models.KindPet, petID); err != nil {
		return nil, err
	}

	e := &models.CalendarEntry{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		PetID:       petID,
		ScheduledAt: in.ScheduledAt,
		AlarmAt:     in.AlarmAt,
		Text:        in.Text,
	}
	e, err := s.repomanager.Calendar(s.db).Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("error scheduling for pet %s: %w", petID, err)
	}

	s.logger.Info(ctx, "calendar entry scheduled", "pet_id", petID, "entry_id", e.ID, "alarm", e.AlarmAt != nil)
	return e, nil
}
