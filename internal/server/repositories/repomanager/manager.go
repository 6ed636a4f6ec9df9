package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/calendar"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/contents"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/purges"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/watermarks"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can choose the scope of each write.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Contents(db dbx.DBTX) contents.Repository
	Calendar(db dbx.DBTX) calendar.Repository
	Purges(db dbx.DBTX) purges.Repository
	Watermarks(db dbx.DBTX) watermarks.Repository
}
