// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/migrations"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/calendar"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/contents"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/purges"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/watermarks"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Contents(db dbx.DBTX) contents.Repository {
	return contents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Calendar(db dbx.DBTX) calendar.Repository {
	return calendar.NewPostgresRepository(db)
}

// Purges returns the purge outbox bound to db.
func (m *PostgresRepositoryManager) Purges(db dbx.DBTX) purges.Repository {
	return purges.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Watermarks(db dbx.DBTX) watermarks.Repository {
	return watermarks.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
