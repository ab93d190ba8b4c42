package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"achapi-coach/internal/models"
)

// ErrProfileNotFound is returned when no profile has the requested id.
var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, data map[string]interface{}) (*models.Profile, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{ID: uuid.New()}
	query := `
		INSERT INTO profiles (id, data)
		VALUES ($1, $2)
		RETURNING data, created_at, updated_at`

	var stored []byte
	err = r.pool.QueryRow(ctx, query, profile.ID, raw).Scan(&stored, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stored, &profile.Data); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile := &models.Profile{ID: id}
	query := `SELECT data, created_at, updated_at FROM profiles WHERE id = $1`

	var stored []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&stored, &profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stored, &profile.Data); err != nil {
		return nil, err
	}
	return profile, nil
}

// Merge upserts the profile, shallow-merging the given top-level fields into
// the stored document.
func (r *ProfileRepo) Merge(ctx context.Context, id uuid.UUID, data map[string]interface{}) (*models.Profile, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{ID: id}
	query := `
		INSERT INTO profiles (id, data)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET data = profiles.data || EXCLUDED.data, updated_at = NOW()
		RETURNING data, created_at, updated_at`

	var stored []byte
	err = r.pool.QueryRow(ctx, query, id, raw).Scan(&stored, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stored, &profile.Data); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetPhotoURL records one progress photo URL under progressPhotos.<label>.
func (r *ProfileRepo) SetPhotoURL(ctx context.Context, id uuid.UUID, label, url string) error {
	query := `
		UPDATE profiles
		SET data = jsonb_set(
				data || jsonb_build_object('progressPhotos', COALESCE(data->'progressPhotos', '{}'::jsonb)),
				ARRAY['progressPhotos', $2::text],
				to_jsonb($3::text)),
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, label, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
