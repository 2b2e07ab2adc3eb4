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

// StatisticsRepository handles user statistics database operations
type StatisticsRepository struct {
	db *DB
}

// NewStatisticsRepository creates a new user statistics repository
func NewStatisticsRepository(db *DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// GetByUserID retrieves the user's statistics row
func (r *StatisticsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error) {
	stats := &models.UserStatistics{}

	query := `
		SELECT user_id, total_sessions, total_waste_kg, total_food_consumed_kg, avg_waste_percentage, last_updated
		FROM user_statistics
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.TotalSessions,
		&stats.TotalWasteKg,
		&stats.TotalFoodConsumedKg,
		&stats.AvgWastePercentage,
		&stats.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("statistics for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}

	return stats, nil
}

// Update overwrites every aggregate field of the user's row in one statement.
// Returns ErrNotFound if the row does not exist.
func (r *StatisticsRepository) Update(ctx context.Context, stats *models.UserStatistics) error {
	query := `
		UPDATE user_statistics
		SET total_sessions = $1, total_waste_kg = $2, total_food_consumed_kg = $3,
		    avg_waste_percentage = $4, last_updated = $5
		WHERE user_id = $6
		RETURNING last_updated
	`

	err := r.db.QueryRowContext(ctx, query,
		stats.TotalSessions,
		stats.TotalWasteKg,
		stats.TotalFoodConsumedKg,
		stats.AvgWastePercentage,
		stats.LastUpdated,
		stats.UserID,
	).Scan(&stats.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("statistics for user %s: %w", stats.UserID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user statistics: %w", err)
	}

	return nil
}

// CreateForUser creates a zeroed statistics row for a newly registered user.
// Returns false when the row already existed.
func (r *StatisticsRepository) CreateForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO user_statistics (user_id, last_updated)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to create user statistics: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
