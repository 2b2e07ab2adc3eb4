package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

// DetectionRepository handles food detection database operations
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new detection repository
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// CreateBatch inserts all detections of one frame in a single transaction.
// Either every detection is stored or none is. The session row is share-locked first so a
// concurrent Complete either waits for the batch or makes it fail with ErrSessionNotActive.
func (r *DetectionRepository) CreateBatch(ctx context.Context, sessionID uuid.UUID, detections []*models.Detection) error {
	query := `
		INSERT INTO food_detections (id, session_id, label, confidence, detection_type, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var status models.SessionStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM tracking_sessions WHERE id = $1 FOR SHARE`, sessionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && status != models.SessionStatusActive) {
			return fmt.Errorf("tracking session %s: %w", sessionID, ErrSessionNotActive)
		}
		if err != nil {
			return fmt.Errorf("failed to lock tracking session: %w", err)
		}
		if len(detections) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare detection insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, d := range detections {
			if _, err := stmt.ExecContext(ctx, d.ID, sessionID, d.Label, d.Confidence, d.Source, d.DetectedAt); err != nil {
				return fmt.Errorf("failed to insert detection %q: %w", d.Label, err)
			}
		}
		return nil
	})
}

// detections of one frame share detected_at; seq keeps them in insertion order
const detectionsBySessionQuery = `
	SELECT id, session_id, label, confidence, detection_type, detected_at
	FROM food_detections
	WHERE session_id = $1
	ORDER BY detected_at ASC, seq ASC
`

// ListBySessionID lists a session's detections in detection order
func (r *DetectionRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.Detection, error) {
	return r.list(ctx, detectionsBySessionQuery, sessionID)
}

// ListRecentByUserID lists the user's most recent detections across all sessions
func (r *DetectionRepository) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Detection, error) {
	query := `
		SELECT d.id, d.session_id, d.label, d.confidence, d.detection_type, d.detected_at
		FROM food_detections d
		JOIN tracking_sessions s ON s.id = d.session_id
		WHERE s.user_id = $1
		ORDER BY d.detected_at DESC, d.seq DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *DetectionRepository) list(ctx context.Context, query string, args ...any) ([]*models.Detection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []*models.Detection
	for rows.Next() {
		d := &models.Detection{}
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Label, &d.Confidence, &d.Source, &d.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detections: %w", err)
	}

	return detections, nil
}
