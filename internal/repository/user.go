package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

type UserRepository interface {
	Save(ctx context.Context, username string) (entity.User, error)
	FindByID(ctx context.Context, id int64) (entity.User, error)
}

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

func (that *userRepository) Save(ctx context.Context, username string) (entity.User, error) {
	query := `INSERT INTO users (username) VALUES (?)`

	result, err := that.conn.ExecContext(ctx, query, username)
	if isUniqueViolation(err) {
		return entity.User{}, apperror.ErrUsernameAlreadyExists
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("can't save user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return entity.User{}, fmt.Errorf("can't read user id: %w", err)
	}

	return entity.User{ID: id, Username: username}, nil
}

func (that *userRepository) FindByID(ctx context.Context, id int64) (entity.User, error) {
	query := `SELECT id, username FROM users WHERE id = ?`

	var user entity.User

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, apperror.ErrUserNotFound
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("can't find user: %w", err)
	}

	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}
