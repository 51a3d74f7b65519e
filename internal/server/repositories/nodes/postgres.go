// Package nodes provides the PostgreSQL-backed repository for the virtual
// filesystem tree.
package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

const nodeColumns = `id, user_id, child_path, parent_path, type, storage_key, file_name, size, created_at, updated_at, deleted_at`

// PostgresRepository implements node storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*models.Node, error) {
	var (
		n         models.Node
		deletedAt sql.NullTime
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.ChildPath, &n.ParentPath, &n.Type, &n.StorageKey,
		&n.FileName, &n.Size, &n.CreatedAt, &n.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		n.DeletedAt = &deletedAt.Time
	}
	return &n, nil
}

// Create inserts node and fills its id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, node *models.Node) (*models.Node, error) {
	query :=
		`INSERT INTO nodes (user_id, child_path, parent_path, type, storage_key, file_name, size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		node.UserID, node.ChildPath, node.ParentPath, node.Type, node.StorageKey, node.FileName, node.Size,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return node, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`

	n, err := scanNode(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, userID int64, parentPath string) ([]*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes
		WHERE user_id = $1 AND parent_path = $2 AND deleted_at IS NULL
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID, parentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to select nodes: %w", err)
	}
	defer rows.Close()

	result := []*models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE nodes SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
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

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresRepository) MarkDescendantsDeleted(ctx context.Context, userID int64, prefix string, at time.Time) (int64, error) {
	query := `UPDATE nodes SET deleted_at = $3, updated_at = $3
		WHERE user_id = $1 AND parent_path LIKE $2 ESCAPE '\' AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, userID, likeEscaper.Replace(prefix)+"%", at)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
