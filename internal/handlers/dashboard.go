package handlers

import (
	"errors"
	"net/http"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	recentSessionsLimit    = 10
	recentDetectionsLimit  = 20
	recentSuggestionsLimit = 10
)

// defaultWasteTypes are reported with zero quantities until a user logs any waste
var defaultWasteTypes = []string{"Vegetable Peels", "Leftover Food", "Spillage"}

// DashboardHandler serves the read-only dashboard views
type DashboardHandler struct {
	sessions    database.SessionRepositoryInterface
	detections  database.DetectionRepositoryInterface
	suggestions database.SuggestionRepositoryInterface
	waste       database.WasteRepositoryInterface
	stats       database.StatisticsRepositoryInterface
	logger      *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	sessions database.SessionRepositoryInterface,
	detections database.DetectionRepositoryInterface,
	suggestions database.SuggestionRepositoryInterface,
	waste database.WasteRepositoryInterface,
	stats database.StatisticsRepositoryInterface,
	logger *zap.Logger,
) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		sessions:    sessions,
		detections:  detections,
		suggestions: suggestions,
		waste:       waste,
		stats:       stats,
		logger:      logger,
	}
}

// RegisterRoutes registers dashboard routes on the given router
// The router should already have the /dashboard prefix
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
}

// DashboardStats is the overview shown on the user's dashboard
type DashboardStats struct {
	Statistics        *models.UserStatistics    `json:"statistics"`
	RecentSessions    []*models.TrackingSession `json:"recent_sessions"`
	RecentDetections  []*models.Detection       `json:"recent_detections"`
	RecentSuggestions []*models.Suggestion      `json:"recent_suggestions"`
	WasteByType       []models.WasteTotal       `json:"waste_by_type"`
}

// SessionDetail is one session with everything recorded during it
type SessionDetail struct {
	Session      *models.TrackingSession `json:"session"`
	Detections   []*models.Detection     `json:"detections"`
	WasteRecords []*models.WasteRecord   `json:"waste_records"`
}

// GetStats handles GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}
	ctx := r.Context()

	stats, err := h.stats.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			respondAppError(w, h.logger, apperror.Store("load statistics", err))
			return
		}
		// users whose row was never initialized see zeroes
		stats = &models.UserStatistics{UserID: userID}
	}

	sessions, err := h.sessions.ListRecentByUserID(ctx, userID, recentSessionsLimit)
	if err != nil {
		respondAppError(w, h.logger, apperror.Store("list sessions", err))
		return
	}
	detections, err := h.detections.ListRecentByUserID(ctx, userID, recentDetectionsLimit)
	if err != nil {
		respondAppError(w, h.logger, apperror.Store("list detections", err))
		return
	}
	suggestions, err := h.suggestions.ListRecentByUserID(ctx, userID, recentSuggestionsLimit)
	if err != nil {
		respondAppError(w, h.logger, apperror.Store("list suggestions", err))
		return
	}
	totals, err := h.waste.TotalsByTypeForUser(ctx, userID)
	if err != nil {
		respondAppError(w, h.logger, apperror.Store("sum waste", err))
		return
	}
	if len(totals) == 0 {
		totals = make([]models.WasteTotal, 0, len(defaultWasteTypes))
		for _, wasteType := range defaultWasteTypes {
			totals = append(totals, models.WasteTotal{WasteType: wasteType})
		}
	}

	respondJSON(w, http.StatusOK, DashboardStats{
		Statistics:        stats,
		RecentSessions:    nonNil(sessions),
		RecentDetections:  nonNil(detections),
		RecentSuggestions: nonNil(suggestions),
		WasteByType:       totals,
	})
}

// GetSession handles GET /api/v1/dashboard/sessions/{id}.
// Sessions of other users are reported as not found.
func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_error", "Invalid session ID")
		return
	}
	ctx := r.Context()

	session, err := h.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondAppError(w, h.logger, apperror.ErrSessionNotFound)
			return
		}
		respondAppError(w, h.logger, apperror.Store("load session", err))
		return
	}
	if session.UserID != userID {
		respondAppError(w, h.logger, apperror.ErrSessionNotFound)
		return
	}

	detections, err := h.detections.ListBySessionID(ctx, sessionID)
	if err != nil {
		respondAppError(w, h.logger, apperror.Store("list detections", err))
		return
	}
	records, err := h.waste.ListBySessionID(ctx, sessionID)
	if err != nil {
		respondAppError(w, h.logger, apperror.Store("list waste records", err))
		return
	}

	respondJSON(w, http.StatusOK, SessionDetail{
		Session:      session,
		Detections:   nonNil(detections),
		WasteRecords: nonNil(records),
	})
}

// nonNil makes empty lists encode as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
