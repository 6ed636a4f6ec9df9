// Package watermarks persists the last window each periodic job processed
// successfully, so a re-triggered run can tell it has nothing left to do.
package watermarks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the stored mark of job, or common.ErrorNotFound if the job
// never completed.
func (r *PostgresRepository) Get(ctx context.Context, job string) (time.Time, error) {
	query := `SELECT mark FROM job_watermarks WHERE job = $1`

	var mark time.Time
	if err := r.db.QueryRowContext(ctx, query, job).Scan(&mark); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return mark, nil
}

// Advance moves the mark of job forward to mark. It never moves backwards.
func (r *PostgresRepository) Advance(ctx context.Context, job string, mark time.Time) error {
	query := `
		INSERT INTO job_watermarks (job, mark) VALUES ($1, $2)
		ON CONFLICT (job)
		DO UPDATE SET mark = GREATEST(job_watermarks.mark, EXCLUDED.mark), updated_at = now();
	`
	if _, err := r.db.ExecContext(ctx, query, job, mark); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
