package nodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

// Repository persists the path-tree nodes of every user.
type Repository interface {
	Create(ctx context.Context, node *models.Node) (*models.Node, error)
	// GetByID returns the node whether or not it is tombstoned.
	GetByID(ctx context.Context, id int64) (*models.Node, error)
	// ListChildren returns the live nodes owned by userID directly under parentPath, ordered by id.
	ListChildren(ctx context.Context, userID int64, parentPath string) ([]*models.Node, error)
	// MarkDeleted tombstones a live node. ErrorNotFound when no live row matched.
	MarkDeleted(ctx context.Context, id int64, at time.Time) error
	// MarkDescendantsDeleted tombstones every live node of userID whose parent
	// path starts with prefix and returns the number of rows touched.
	MarkDescendantsDeleted(ctx context.Context, userID int64, prefix string, at time.Time) (int64, error)
}
