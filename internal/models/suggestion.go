package models

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionCategory groups suggestions by the behavior they target
type SuggestionCategory string

const (
	SuggestionCategoryWasteReduction SuggestionCategory = "waste_reduction"
	SuggestionCategoryHealth         SuggestionCategory = "health"
	SuggestionCategoryPlanning       SuggestionCategory = "planning"
)

// Suggestion represents a behavioral suggestion shown to the user
type Suggestion struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	SessionID *uuid.UUID         `json:"session_id,omitempty"`
	Text      string             `json:"text"`
	Category  SuggestionCategory `json:"category"`
	CreatedAt time.Time          `json:"created_at"`
}
