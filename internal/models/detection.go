package models

import (
	"time"

	"github.com/google/uuid"
)

// DetectionSourceYOLO tags detections produced by the frame pipeline's object detector
const DetectionSourceYOLO = "yolo"

// Detection represents one recognized item in one frame
type Detection struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	DetectedAt time.Time `json:"detected_at"`
}

// Candidate is a raw (label, confidence) pair returned by the detection model
type Candidate struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
