package database

import (
	"context"
	"fmt"

	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

// WasteRepository handles waste record database operations
type WasteRepository struct {
	db *DB
}

// NewWasteRepository creates a new waste repository
func NewWasteRepository(db *DB) *WasteRepository {
	return &WasteRepository{db: db}
}

// Create inserts a waste record
func (r *WasteRepository) Create(ctx context.Context, record *models.WasteRecord) error {
	query := `
		INSERT INTO waste_tracking (id, session_id, waste_type, quantity_kg, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.SessionID,
		record.WasteType,
		record.QuantityKg,
		record.RecordedAt,
	); err != nil {
		return fmt.Errorf("failed to create waste record: %w", err)
	}
	return nil
}

// SumQuantityByUserID sums every waste quantity recorded across the user's sessions
func (r *WasteRepository) SumQuantityByUserID(ctx context.Context, userID uuid.UUID) (float64, error) {
	query := `
		SELECT COALESCE(SUM(w.quantity_kg), 0)
		FROM waste_tracking w
		JOIN tracking_sessions s ON s.id = w.session_id
		WHERE s.user_id = $1
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum waste: %w", err)
	}
	return total, nil
}

// TotalsByTypeForUser sums the user's waste per waste type, largest first
func (r *WasteRepository) TotalsByTypeForUser(ctx context.Context, userID uuid.UUID) ([]models.WasteTotal, error) {
	query := `
		SELECT w.waste_type, SUM(w.quantity_kg) AS total
		FROM waste_tracking w
		JOIN tracking_sessions s ON s.id = w.session_id
		WHERE s.user_id = $1
		GROUP BY w.waste_type
		ORDER BY total DESC, w.waste_type ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to total waste by type: %w", err)
	}
	defer rows.Close()

	var totals []models.WasteTotal
	for rows.Next() {
		var t models.WasteTotal
		if err := rows.Scan(&t.WasteType, &t.QuantityKg); err != nil {
			return nil, fmt.Errorf("failed to scan waste total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waste totals: %w", err)
	}

	return totals, nil
}

const wasteBySessionQuery = `
	SELECT id, session_id, waste_type, quantity_kg, recorded_at
	FROM waste_tracking
	WHERE session_id = $1
	ORDER BY recorded_at ASC, seq ASC
`

// ListBySessionID lists a session's waste records in recording order
func (r *WasteRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.WasteRecord, error) {
	rows, err := r.db.QueryContext(ctx, wasteBySessionQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list waste records: %w", err)
	}
	defer rows.Close()

	var records []*models.WasteRecord
	for rows.Next() {
		w := &models.WasteRecord{}
		if err := rows.Scan(&w.ID, &w.SessionID, &w.WasteType, &w.QuantityKg, &w.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan waste record: %w", err)
		}
		records = append(records, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waste records: %w", err)
	}

	return records, nil
}
