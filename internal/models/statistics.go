package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatistics holds the aggregate tracking figures for one user.
// Every field except UserID is rewritten on each recompute.
type UserStatistics struct {
	UserID              uuid.UUID `json:"user_id"`
	TotalSessions       int       `json:"total_sessions"`
	TotalWasteKg        float64   `json:"total_waste_kg"`
	TotalFoodConsumedKg float64   `json:"total_food_consumed_kg"`
	AvgWastePercentage  float64   `json:"avg_waste_percentage"`
	LastUpdated         time.Time `json:"last_updated"`
}

// WasteRecord represents a quantity of wasted food logged against a session
type WasteRecord struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	WasteType  string    `json:"waste_type"`
	QuantityKg float64   `json:"quantity_kg"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WasteTotal is the summed waste quantity for one waste type
type WasteTotal struct {
	WasteType  string  `json:"waste_type"`
	QuantityKg float64 `json:"quantity_kg"`
}
