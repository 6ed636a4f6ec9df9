// Package purges is the durable outbox of cleanup steps that failed during a
// best-effort cascade and must be retried by a later cycle.
package purges

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Enqueue records a pending step. A step already known for the same owner
// is reset to pending, keeping its attempt count.
func (r *PostgresRepository) Enqueue(ctx context.Context, ownerType, ownerID, step, lastErr string) error {
	query := `
		INSERT INTO purge_steps (id, owner_type, owner_id, step, status, last_error)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		ON CONFLICT (owner_type, owner_id, step)
		DO UPDATE SET
			status = 'pending',
			last_error = EXCLUDED.last_error,
			updated_at = now();
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), ownerType, ownerID, step, lastErr); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SelectPending returns up to limit pending steps, least recently attempted
// first.
func (r *PostgresRepository) SelectPending(ctx context.Context, limit int) ([]*models.PurgeStep, error) {
	query := `
		SELECT id, owner_type, owner_id, step, status, attempts, last_error, created_at, updated_at
		FROM purge_steps
		WHERE status = 'pending'
		ORDER BY updated_at, id
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select purge steps: %w", err)
	}
	defer rows.Close()

	var result []*models.PurgeStep
	for rows.Next() {
		var s models.PurgeStep
		if err := rows.Scan(&s.ID, &s.OwnerType, &s.OwnerID, &s.Step, &s.Status,
			&s.Attempts, &s.LastError, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkDone(ctx context.Context, id string) error {
	query := `UPDATE purge_steps SET status = 'done', attempts = attempts + 1, last_error = '', updated_at = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MarkFailed counts a failed attempt. With giveUp the step leaves the pending
// set for good and stays as failed for operators to inspect.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id, msg string, giveUp bool) error {
	status := models.PurgeStatusPending
	if giveUp {
		status = models.PurgeStatusFailed
	}
	query := `UPDATE purge_steps SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, msg); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
