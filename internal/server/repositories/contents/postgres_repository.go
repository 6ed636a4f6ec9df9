// Package contents provides PostgreSQL-backed persistence for posts and pet
// profiles, including the has_attachment flag kept in step with the BlobStore.
package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

const selectColumns = `id, owner_id, kind, category, title, body, has_attachment, created_at, updated_at`

// PostgresRepository implements content storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts c. The has_attachment flag always starts false; it is set
// only once the BlobStore confirmed the upload.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	query :=
		`INSERT INTO contents (id, owner_id, kind, category, title, body)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING has_attachment, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.ID, c.OwnerID, string(c.Kind), c.Category, c.Title, c.Body).
		Scan(&c.HasAttachment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := `SELECT ` + selectColumns + ` FROM contents WHERE id = $1`

	c, err := scanContent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Update writes the editable fields of c. The attachment flag is left alone.
func (r *PostgresRepository) Update(ctx context.Context, c *models.Content) error {
	query :=
		`UPDATE contents SET category = $2, title = $3, body = $4, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, c.ID, c.Category, c.Title, c.Body)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) SetHasAttachment(ctx context.Context, id string, v bool) error {
	query := `UPDATE contents SET has_attachment = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, v)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contents WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Content, error) {
	query := `SELECT ` + selectColumns + ` FROM contents WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contents: %w", err)
	}
	return collect(rows)
}

// DeleteByOwner removes every content row of ownerID and returns the removed
// rows so the caller can clean up their attachments.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) ([]*models.Content, error) {
	query := `DELETE FROM contents WHERE owner_id = $1 RETURNING ` + selectColumns

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete contents: %w", err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(s scanner) (*models.Content, error) {
	var (
		c    models.Content
		kind string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &kind, &c.Category, &c.Title, &c.Body,
		&c.HasAttachment, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Kind = models.Kind(kind)
	return &c, nil
}

func collect(rows *sql.Rows) ([]*models.Content, error) {
	defer rows.Close()

	var result []*models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
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
