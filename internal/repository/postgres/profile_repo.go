package postgres

import (
	"context"
	"errors"

	"go-signup-backend/internal/domain"
	"go-signup-backend/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

const profileColumns = `user_id, birth_date, gender, profile_image_url, bio, created_at, updated_at`

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.BirthDate, &p.Gender, &p.ProfileImageURL, &p.Bio,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Internal(err)
	}
	return &p, nil
}

func (r *profileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		profile.UserID, profile.BirthDate, profile.Gender,
		profile.ProfileImageURL, profile.Bio, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *profileRepo) Update(ctx context.Context, profile *domain.Profile) error {
	query := `UPDATE profiles
              SET birth_date = $2, gender = $3, profile_image_url = $4, bio = $5, updated_at = $6
              WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query,
		profile.UserID, profile.BirthDate, profile.Gender,
		profile.ProfileImageURL, profile.Bio, profile.UpdatedAt,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *profileRepo) Upsert(ctx context.Context, profile *domain.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (user_id) DO UPDATE
              SET birth_date = EXCLUDED.birth_date,
                  gender = EXCLUDED.gender,
                  profile_image_url = EXCLUDED.profile_image_url,
                  bio = EXCLUDED.bio,
                  updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query,
		profile.UserID, profile.BirthDate, profile.Gender,
		profile.ProfileImageURL, profile.Bio, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}
