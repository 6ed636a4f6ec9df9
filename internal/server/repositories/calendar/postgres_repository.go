// Package calendar provides PostgreSQL-backed persistence for pet calendar
// entries and the due-alarm query of the alarm dispatch job.
package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.CalendarEntry) (*models.CalendarEntry, error) {
	query :=
		`INSERT INTO calendar_entries (id, owner_id, pet_id, scheduled_at, alarm_at, text)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	// The due-alarm window ends at 23:59:59.999, so alarms are stored
	// at millisecond precision.
	var alarm sql.NullTime
	if e.AlarmAt != nil {
		at := e.AlarmAt.Truncate(time.Millisecond)
		e.AlarmAt = &at
		alarm = sql.NullTime{Time: at, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, e.ID, e.OwnerID, e.PetID, e.ScheduledAt, alarm, e.Text); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// SelectAlarmsBetween returns entries whose alarm time lies in [from, to],
// both ends inclusive, ordered by alarm time ascending.
func (r *PostgresRepository) SelectAlarmsBetween(ctx context.Context, from, to time.Time) ([]*models.CalendarEntry, error) {
	query :=
		`SELECT id, owner_id, pet_id, scheduled_at, alarm_at, text FROM calendar_entries
		 WHERE alarm_at BETWEEN $1 AND $2
		 ORDER BY alarm_at ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to select calendar entries: %w", err)
	}
	defer rows.Close()

	var result []*models.CalendarEntry
	for rows.Next() {
		var (
			e     models.CalendarEntry
			alarm sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.PetID, &e.ScheduledAt, &alarm, &e.Text); err != nil {
			return nil, err
		}
		if alarm.Valid {
			e.AlarmAt = &alarm.Time
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	query := `DELETE FROM calendar_entries WHERE owner_id = $1`

	res, err := r.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
