// internal/repository/user.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"roamly/internal/domain/auth"
)

// Define errors at package level
var (
	ErrUserExists   = auth.ErrUserExists
	ErrUserNotFound = auth.ErrUserNotFound
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, username, password_hash, email, location, description, created_at"

func (r *UserRepository) CreateUser(ctx context.Context, req *auth.SignupRequest) (*auth.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Check if user exists
	var existingID int64
	err = tx.QueryRow(ctx, "SELECT id FROM users WHERE username = $1 OR email = $2", req.Username, req.Email).
		Scan(&existingID)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	user := &auth.User{
		Username:     req.Username,
		PasswordHash: req.Password,
		Email:        req.Email,
		Location:     req.Location,
		Description:  req.Description,
	}
	err = tx.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, email, location, description) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at",
		req.Username, req.Password, req.Email, req.Location, req.Description).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*auth.User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg any) (*auth.User, error) {
	var user auth.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Email,
		&user.Location, &user.Description, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
