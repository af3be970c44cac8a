package postgres

import (
	"context"
	"errors"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// PostgreSQL error codes
const (
	pgUniqueViolation = "23505"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, username, email, phone, email_verified, phone_verified, social_id, linked_providers, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.Phone,
		user.EmailVerified, user.PhoneVerified, user.SocialID,
		pq.Array(user.LinkedProviders), user.CreatedAt, user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.Conflict("An account with this username or email already exists")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepo) GetBySocialID(ctx context.Context, socialID string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE social_id = $1`, socialID)
}

// getBy returns (nil, nil) when no record matches; absence is a normal
// outcome for availability checks and reconciliation lookups.
func (r *userRepo) getBy(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.Phone,
		&user.EmailVerified, &user.PhoneVerified, &user.SocialID,
		pq.Array(&user.LinkedProviders), &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Internal(err)
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users
              SET username = $2, email = $3, phone = $4, email_verified = $5,
                  phone_verified = $6, social_id = $7, linked_providers = $8, updated_at = $9
              WHERE id = $1`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.Phone,
		user.EmailVerified, user.PhoneVerified, user.SocialID,
		pq.Array(user.LinkedProviders), user.UpdatedAt,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}
