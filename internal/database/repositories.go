package database

import (
	"context"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

// SessionRepositoryInterface defines the interface for tracking session repository operations
// This interface enables better testability by allowing mock implementations
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.TrackingSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error)
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.TrackingSession, error)
	Complete(ctx context.Context, id uuid.UUID, endTime time.Time) (*models.TrackingSession, error)
	CountCompletedByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.TrackingSession, error)
}

// DetectionRepositoryInterface defines the interface for detection repository operations
type DetectionRepositoryInterface interface {
	CreateBatch(ctx context.Context, sessionID uuid.UUID, detections []*models.Detection) error
	ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.Detection, error)
	ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Detection, error)
}

// SuggestionRepositoryInterface defines the interface for suggestion repository operations
type SuggestionRepositoryInterface interface {
	CreateBatch(ctx context.Context, suggestions []*models.Suggestion) error
	ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Suggestion, error)
}

// WasteRepositoryInterface defines the interface for waste record repository operations
type WasteRepositoryInterface interface {
	Create(ctx context.Context, record *models.WasteRecord) error
	SumQuantityByUserID(ctx context.Context, userID uuid.UUID) (float64, error)
	TotalsByTypeForUser(ctx context.Context, userID uuid.UUID) ([]models.WasteTotal, error)
	ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.WasteRecord, error)
}

// StatisticsRepositoryInterface defines the interface for user statistics repository operations
type StatisticsRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error)
	Update(ctx context.Context, stats *models.UserStatistics) error
	CreateForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ProfileRepositoryInterface defines the interface for user profile repository operations
type ProfileRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

// Ensure concrete types implement the interfaces
var (
	_ SessionRepositoryInterface    = (*SessionRepository)(nil)
	_ DetectionRepositoryInterface  = (*DetectionRepository)(nil)
	_ SuggestionRepositoryInterface = (*SuggestionRepository)(nil)
	_ WasteRepositoryInterface      = (*WasteRepository)(nil)
	_ StatisticsRepositoryInterface = (*StatisticsRepository)(nil)
	_ ProfileRepositoryInterface    = (*ProfileRepository)(nil)
)
