package services

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/blob"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clouddrive/internal/timex"
)

// TreeService manages the per-user virtual filesystem: path-addressed nodes
// backed by blobs, with soft deletion.
type TreeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	now         timex.Clock
	log         logging.Logger
}

func NewTreeService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, log logging.Logger) *TreeService {
	return &TreeService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		now:         time.Now,
		log:         log.With("module", "tree"),
	}
}

// maxPathLength bounds a normalised parent path so live-children index
// entries stay well under the PostgreSQL btree row limit.
const maxPathLength = 2048

func checkParent(parentPath string) error {
	if len(models.NormalizePath(parentPath)) > maxPathLength {
		ve := common.NewValidationError()
		ve.Add("parent_path", "path is too long")
		return ve
	}
	return nil
}

// checkName rejects names that are empty or would change the hierarchy.
func checkName(field, name string) error {
	ve := common.NewValidationError()
	switch {
	case strings.TrimSpace(name) == "":
		ve.Add(field, "name cannot be empty")
	case strings.Contains(name, "/"):
		ve.Add(field, "name cannot contain '/'")
	case name == "." || name == "..":
		ve.Add(field, "name is reserved")
	case len(name) > 255:
		ve.Add(field, "name is too long")
	}
	return ve.OrNil()
}

// ListChildren returns the live nodes of identity directly under parentPath.
// The result is never nil.
func (s *TreeService) ListChildren(ctx context.Context, identity *models.User, parentPath string) ([]*models.Node, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	return s.repomanager.Nodes(s.db).ListChildren(ctx, identity.ID, models.NormalizePath(parentPath))
}

// InsertFile records a file node whose bytes already live under storageKey.
// Display names need not be unique within a folder.
func (s *TreeService) InsertFile(ctx context.Context, identity *models.User, parentPath, displayName, storageKey string, size int64) (*models.Node, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	if err := checkName("file", displayName); err != nil {
		return nil, err
	}
	if err := checkParent(parentPath); err != nil {
		return nil, err
	}

	return s.repomanager.Nodes(s.db).Create(ctx, &models.Node{
		UserID:     identity.ID,
		ChildPath:  displayName,
		ParentPath: models.NormalizePath(parentPath),
		Type:       models.FileType(displayName),
		StorageKey: storageKey,
		FileName:   displayName,
		Size:       size,
	})
}

// InsertFolder records a folder node. The parent need not exist.
func (s *TreeService) InsertFolder(ctx context.Context, identity *models.User, parentPath, folderName string) (*models.Node, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	folderName = strings.TrimSpace(folderName)
	if err := checkName("folder", folderName); err != nil {
		return nil, err
	}
	if err := checkParent(parentPath); err != nil {
		return nil, err
	}

	return s.repomanager.Nodes(s.db).Create(ctx, &models.Node{
		UserID:     identity.ID,
		ChildPath:  folderName,
		ParentPath: models.NormalizePath(parentPath),
		Type:       models.FolderType,
		FileName:   folderName,
	})
}

// Upload stores r in the blob store and records it as a file node.
func (s *TreeService) Upload(ctx context.Context, identity *models.User, parentPath, displayName string, r io.Reader) (*models.Node, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	if err := checkName("file", displayName); err != nil {
		return nil, err
	}
	if err := checkParent(parentPath); err != nil {
		return nil, err
	}

	key, size, err := s.blobs.Put(ctx, r, displayName)
	if err != nil {
		return nil, err
	}

	node, err := s.InsertFile(ctx, identity, parentPath, displayName, key, size)
	if err != nil {
		s.log.Warn(ctx, "blob stored without a node", "storage_key", key, "error", err)
		return nil, err
	}

	s.log.Debug(ctx, "file uploaded", "node_id", node.ID, "size", size)
	return node, nil
}

// Get returns a live node owned by identity.
func (s *TreeService) Get(ctx context.Context, identity *models.User, nodeID int64) (*models.Node, error) {
	node, err := s.repomanager.Nodes(s.db).GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.IsDeleted() {
		return nil, common.ErrorNotFound
	}
	if err := Authorize(identity, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Open returns a file node together with its bytes. Folders have no bytes
// and are reported as common.ErrorNotFound.
func (s *TreeService) Open(ctx context.Context, identity *models.User, nodeID int64) (*models.Node, io.ReadCloser, error) {
	node, err := s.Get(ctx, identity, nodeID)
	if err != nil {
		return nil, nil, err
	}
	if node.IsFolder() || node.StorageKey == "" {
		return nil, nil, common.ErrorNotFound
	}

	rc, err := s.blobs.Open(ctx, node.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return node, rc, nil
}

// SoftDelete tombstones a node. Deleting a folder tombstones every live
// node below it in the same transaction. Blobs are kept.
func (s *TreeService) SoftDelete(ctx context.Context, identity *models.User, nodeID int64) (*models.Node, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}

	var (
		node        *models.Node
		descendants int64
	)
	at := s.now().UTC()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Nodes(tx)

		n, err := repo.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if n.IsDeleted() {
			return common.ErrorNotFound
		}
		if err := Authorize(identity, n); err != nil {
			return err
		}

		if err := repo.MarkDeleted(ctx, n.ID, at); err != nil {
			return err
		}
		if n.IsFolder() {
			descendants, err = repo.MarkDescendantsDeleted(ctx, identity.ID, models.FolderPath(n), at)
			if err != nil {
				return err
			}
		}

		n.DeletedAt = &at
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "node deleted", "node_id", node.ID, "user_id", identity.ID, "descendants", descendants)
	return node, nil
}
