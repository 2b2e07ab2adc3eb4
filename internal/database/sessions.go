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

// SessionRepository handles tracking session database operations
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new tracking session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, mode, status, start_time, end_time`

// Create inserts a new session. Returns ErrConflict if the user already has an active session.
func (r *SessionRepository) Create(ctx context.Context, session *models.TrackingSession) error {
	query := `
		INSERT INTO tracking_sessions (id, user_id, mode, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var endTime sql.NullTime
	if session.EndTime != nil {
		endTime = sql.NullTime{Time: *session.EndTime, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Mode,
		session.Status,
		session.StartTime,
		endTime,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s already has an active session: %w", session.UserID, ErrConflict)
		}
		return fmt.Errorf("failed to create tracking session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM tracking_sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tracking session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tracking session: %w", err)
	}
	return session, nil
}

// GetActiveByUserID retrieves the user's active session, if any
func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.TrackingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM tracking_sessions WHERE user_id = $1 AND status = 'active'`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active session for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active tracking session: %w", err)
	}
	return session, nil
}

// Complete atomically transitions an active session to completed.
// Returns ErrNotFound if the session does not exist or is no longer active.
func (r *SessionRepository) Complete(ctx context.Context, id uuid.UUID, endTime time.Time) (*models.TrackingSession, error) {
	query := `
		UPDATE tracking_sessions
		SET status = 'completed', end_time = $1
		WHERE id = $2 AND status = 'active'
		RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRowContext(ctx, query, endTime, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active tracking session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to complete tracking session: %w", err)
	}
	return session, nil
}

// CountCompletedByUserID counts the user's completed sessions
func (r *SessionRepository) CountCompletedByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM tracking_sessions WHERE user_id = $1 AND status = 'completed'`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	return count, nil
}

// ListRecentByUserID lists the user's most recent sessions, newest first
func (r *SessionRepository) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.TrackingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM tracking_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.TrackingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking sessions: %w", err)
	}

	return sessions, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.TrackingSession, error) {
	session := &models.TrackingSession{}
	var endTime sql.NullTime
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Mode,
		&session.Status,
		&session.StartTime,
		&endTime,
	); err != nil {
		return nil, err
	}
	if endTime.Valid {
		session.EndTime = &endTime.Time
	}
	return session, nil
}
