package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX so that services
// can run the same repository code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Nodes(db dbx.DBTX) nodes.Repository
}
