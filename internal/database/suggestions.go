package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

// SuggestionRepository handles suggestion database operations
type SuggestionRepository struct {
	db *DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// CreateBatch inserts one engine invocation's suggestions in a single transaction
func (r *SuggestionRepository) CreateBatch(ctx context.Context, suggestions []*models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	query := `
		INSERT INTO ai_suggestions (id, user_id, session_id, suggestion_text, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, s := range suggestions {
			var sessionID uuid.NullUUID
			if s.SessionID != nil {
				sessionID = uuid.NullUUID{UUID: *s.SessionID, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, query, s.ID, s.UserID, sessionID, s.Text, s.Category, s.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert suggestion: %w", err)
			}
		}
		return nil
	})
}

// ListRecentByUserID lists the user's most recent suggestions, newest first
func (r *SuggestionRepository) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Suggestion, error) {
	query := `
		SELECT id, user_id, session_id, suggestion_text, category, created_at
		FROM ai_suggestions
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.Suggestion
	for rows.Next() {
		s := &models.Suggestion{}
		var sessionID uuid.NullUUID
		if err := rows.Scan(&s.ID, &s.UserID, &sessionID, &s.Text, &s.Category, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		if sessionID.Valid {
			id := sessionID.UUID
			s.SessionID = &id
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	return suggestions, nil
}
