package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/metrics"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lifecycle/internal/timex"
)

// AlarmPublisher hands an ordered batch of alarm messages to the queue.
type AlarmPublisher interface {
	PublishBatch(ctx context.Context, msgs []models.AlarmMessage) error
}

// AlarmDispatcher publishes the alarms that fall on the current day.
type AlarmDispatcher struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   AlarmPublisher
	logger      logging.Logger
	now         func() time.Time
}

func NewAlarmDispatcher(db *sql.DB, rm repomanager.RepositoryManager, publisher AlarmPublisher, logger logging.Logger) *AlarmDispatcher {
	return &AlarmDispatcher{
		db:          db,
		repomanager: rm,
		publisher:   publisher,
		logger:      logger.With("module", "alarms"),
		now:         time.Now,
	}
}

// Dispatch publishes, in one call, every alarm between 00:00:00.000 and
// 23:59:59.999 of day's calendar day in day's location, ordered by alarm
// time. It keeps no state: dispatching the same day twice publishes the same
// batch twice.
func (d *AlarmDispatcher) Dispatch(ctx context.Context, day time.Time) (int, error) {
	start, end := timex.DayWindow(day)

	entries, err := d.repomanager.Calendar(d.db).SelectAlarmsBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("select alarms: %w", err)
	}

	msgs := make([]models.AlarmMessage, 0, len(entries))
	for _, e := range entries {
		if e.AlarmAt == nil {
			continue
		}
		msgs = append(msgs, models.NewAlarmMessage(e))
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].AlarmAt.Before(msgs[j].AlarmAt) })

	if len(msgs) == 0 {
		d.logger.Debug(ctx, "no alarms due", "from", start, "to", end)
		return 0, nil
	}

	if err := d.publisher.PublishBatch(ctx, msgs); err != nil {
		return 0, fmt.Errorf("publish %d alarms: %w", len(msgs), err)
	}

	metrics.AlarmsPublished.Add(float64(len(msgs)))
	d.logger.Info(ctx, "alarms published", "count", len(msgs), "from", start, "to", end)
	return len(msgs), nil
}

type forceKey struct{}

// WithForce marks ctx so that Run dispatches even when the day is already
// behind the watermark.
func WithForce(ctx context.Context) context.Context {
	return context.WithValue(ctx, forceKey{}, true)
}

func forced(ctx context.Context) bool {
	v, _ := ctx.Value(forceKey{}).(bool)
	return v
}

// Run dispatches today's alarms unless today was already dispatched, and
// records today as done afterwards.
func (d *AlarmDispatcher) Run(ctx context.Context) error {
	day := d.now()
	start, _ := timex.DayWindow(day)
	marks := d.repomanager.Watermarks(d.db)

	if !forced(ctx) {
		mark, err := marks.Get(ctx, common.JobAlarmDispatch)
		switch {
		case err == nil && !start.After(mark):
			d.logger.Info(ctx, "alarms already dispatched", "day", start, "watermark", mark)
			return nil
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("read watermark: %w", err)
		}
	}

	if _, err := d.Dispatch(ctx, day); err != nil {
		return err
	}

	if err := marks.Advance(ctx, common.JobAlarmDispatch, start); err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}
