// Package accounts provides PostgreSQL-backed persistence for member accounts
// and the purge-eligibility query used by the cascade delete job.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

// PostgresRepository implements account storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, nickname)
		 VALUES ($1, $2)
		 RETURNING created_at, modified_at
		 `

	err := r.db.QueryRowContext(ctx, query, a.ID, a.Nickname).Scan(&a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, nickname, deleted, deleted_at, created_at, modified_at FROM accounts
		 WHERE id = $1
		 `

	a := &models.Account{}
	var deletedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.Nickname, &a.Deleted, &deletedAt, &a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Time
	}

	return a, nil
}

// MarkDeleted soft-deletes the account. modified_at is moved to at, which
// starts the grace period.
func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE accounts SET deleted = TRUE, deleted_at = $2, modified_at = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// SelectPurgeable returns up to limit soft-deleted accounts last modified
// strictly before cutoff, with id greater than afterID, in id order.
func (r *PostgresRepository) SelectPurgeable(ctx context.Context, cutoff time.Time, afterID string, limit int) ([]*models.Account, error) {
	query :=
		`SELECT id, nickname, deleted, deleted_at, created_at, modified_at FROM accounts
		 WHERE deleted AND modified_at < $1 AND id > $2
		 ORDER BY id
		 LIMIT $3
		 `

	rows, err := r.db.QueryContext(ctx, query, cutoff, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		var (
			a         models.Account
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Nickname, &a.Deleted, &deletedAt, &a.CreatedAt, &a.ModifiedAt); err != nil {
			return nil, err
		}
		if deletedAt.Valid {
			a.DeletedAt = &deletedAt.Time
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
