// Package users provides the PostgreSQL-backed identity repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const selectUser = `SELECT id, username, email, date_of_birth, phone_number, image_file, password_hash, created_at, updated_at
	FROM users
	`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// dbError turns unique violations on the users table into the matching
// duplicate error and wraps everything else.
func dbError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case usernameConstraint:
			return common.ErrDuplicateUsername
		case emailConstraint:
			return common.ErrDuplicateEmail
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, date_of_birth, phone_number, image_file, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.DateOfBirth, user.PhoneNumber, user.ImageFile, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, dbError(err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, selectUser+where, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.DateOfBirth, &user.PhoneNumber,
		&user.ImageFile, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "WHERE email = $1", email)
}

func (r *PostgresRepository) exists(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM users WHERE %s = $1 AND id <> $2)`, column)

	var found bool
	if err := r.db.QueryRowContext(ctx, query, value, excludeID).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) ExistsUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

func (r *PostgresRepository) ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

// Update writes the editable profile fields of user and refreshes UpdatedAt.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET username = $2, email = $3, date_of_birth = $4, phone_number = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.DateOfBirth, user.PhoneNumber,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return dbError(err)
	}
	return nil
}

func (r *PostgresRepository) updateColumn(ctx context.Context, column string, id int64, value string) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE id = $1`, column)

	res, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.updateColumn(ctx, "password_hash", id, passwordHash)
}

func (r *PostgresRepository) UpdateImage(ctx context.Context, id int64, imageFile string) error {
	return r.updateColumn(ctx, "image_file", id, imageFile)
}
