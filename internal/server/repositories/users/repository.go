package users

import (
	"context"

	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

// Repository persists identities. Lookups by username and email are
// case-sensitive exact matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ExistsUsername reports whether another identity (id != excludeID) holds username.
	ExistsUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	// ExistsEmail reports whether another identity (id != excludeID) holds email.
	ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateImage(ctx context.Context, id int64, imageFile string) error
}
