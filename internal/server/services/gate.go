package services

import (
	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

// Authorize allows access to node only for its owner. Anonymous callers and
// other identities get common.ErrorForbidden.
func Authorize(identity *models.User, node *models.Node) error {
	if identity == nil || node == nil || identity.ID != node.UserID {
		return common.ErrorForbidden
	}
	return nil
}

// RequireIdentity guards operations that are scoped to the caller rather
// than to a single node, such as listings and inserts.
func RequireIdentity(identity *models.User) error {
	if identity == nil {
		return common.ErrorUnauthorized
	}
	return nil
}
