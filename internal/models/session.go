package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackingMode represents what the user is doing during a tracking session
type TrackingMode string

const (
	TrackingModeCooking TrackingMode = "cooking"
	TrackingModeEating  TrackingMode = "eating"
	TrackingModeSummary TrackingMode = "summary"
)

// Valid reports whether m is one of the recognized tracking modes
func (m TrackingMode) Valid() bool {
	switch m {
	case TrackingModeCooking, TrackingModeEating, TrackingModeSummary:
		return true
	}
	return false
}

// SessionStatus represents the lifecycle state of a tracking session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// TrackingSession represents one bounded period during which frames are analyzed
type TrackingSession struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Mode      TrackingMode  `json:"mode"`
	Status    SessionStatus `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
}

// IsActive reports whether the session still accepts frames
func (s *TrackingSession) IsActive() bool {
	return s != nil && s.Status == SessionStatusActive
}
