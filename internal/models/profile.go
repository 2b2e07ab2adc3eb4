package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the personal details suggestions can be tailored to.
// Numeric fields are nil until the user fills them in.
type UserProfile struct {
	UserID            uuid.UUID `json:"user_id"`
	Age               *int      `json:"age"`
	WeightKg          *float64  `json:"weight_kg"`
	HeightCm          *float64  `json:"height_cm"`
	DietaryPreference string    `json:"dietary_preference"`
	Goals             string    `json:"goals"`
	UpdatedAt         time.Time `json:"updated_at"`
}
