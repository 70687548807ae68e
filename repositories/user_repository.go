package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Dosada05/round-submissions/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type sqlUserRepository struct {
	baseRepository
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return NewUserRepository(db, PostgresDialect)
}

func NewUserRepository(db *sql.DB, d Dialect) UserRepository {
	return &sqlUserRepository{baseRepository: newBaseRepository(db, d)}
}

func (r *sqlUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *sqlUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username})
}

func (r *sqlUserRepository) getOne(ctx context.Context, where sq.Sqlizer) (*models.User, error) {
	q := r.sb.Select("id", "username", "display_name", "password_hash").
		From("users").
		Where(where)
	row, err := queryRow(ctx, r.db, q)
	if err != nil {
		return nil, err
	}
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}
