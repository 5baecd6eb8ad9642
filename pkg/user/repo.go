package user

import (
	"context"
	"database/sql"
	"errors"
)

type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

func (r *MySQLRepo) Create(ctx context.Context, user *User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, password) VALUES (?, ?, ?)",
		user.ID, user.Username, user.Password,
	)
	return err
}

func (r *MySQLRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, "SELECT id, username, password FROM users WHERE username = ?", username)
}

func (r *MySQLRepo) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, "SELECT id, username, password FROM users WHERE id = ?", id)
}

func (r *MySQLRepo) findOne(ctx context.Context, query string, arg string) (*User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}
