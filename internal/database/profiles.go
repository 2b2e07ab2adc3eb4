package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

// profileUpsertQuery replaces every field of the user's profile, creating it on first save
const profileUpsertQuery = `
	INSERT INTO user_profiles (user_id, age, weight_kg, height_cm, dietary_preference, goals, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id) DO UPDATE
	SET age = EXCLUDED.age,
	    weight_kg = EXCLUDED.weight_kg,
	    height_cm = EXCLUDED.height_cm,
	    dietary_preference = EXCLUDED.dietary_preference,
	    goals = EXCLUDED.goals,
	    updated_at = EXCLUDED.updated_at
	RETURNING updated_at
`

// ProfileRepository handles user profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new user profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves the user's profile. Returns ErrNotFound if none was saved.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile := &models.UserProfile{}

	query := `
		SELECT user_id, age, weight_kg, height_cm, dietary_preference, goals, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Age,
		&profile.WeightKg,
		&profile.HeightCm,
		&profile.DietaryPreference,
		&profile.Goals,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return profile, nil
}

// Upsert saves profile, replacing any previous version
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, profileUpsertQuery,
		profile.UserID,
		profile.Age,
		profile.WeightKg,
		profile.HeightCm,
		profile.DietaryPreference,
		profile.Goals,
		profile.UpdatedAt,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}

	return nil
}
