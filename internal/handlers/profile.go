package handlers

import (
	"errors"
	"net/http"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/request"
	"github.com/SKYGOD07/Arjuna-Project/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProfileHandler serves the caller's own profile
type ProfileHandler struct {
	profiles database.ProfileRepositoryInterface
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles database.ProfileRepositoryInterface, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// RegisterRoutes registers profile routes on the given router
// The router should already have the /profile prefix
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProfile).Methods("GET")
	r.HandleFunc("", h.SaveProfile).Methods("PUT")
}

type profileRequest struct {
	Age               *int     `json:"age" validate:"omitempty,gt=0,lte=150"`
	WeightKg          *float64 `json:"weight_kg" validate:"omitempty,gt=0,lte=700"`
	HeightCm          *float64 `json:"height_cm" validate:"omitempty,gt=0,lte=300"`
	DietaryPreference string   `json:"dietary_preference" validate:"max=50"`
	Goals             string   `json:"goals" validate:"max=500"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondAppError(w, h.logger, apperror.ErrProfileNotFound)
			return
		}
		respondAppError(w, h.logger, apperror.Store("load profile", err))
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// SaveProfile handles PUT /api/v1/profile. The body replaces the whole profile;
// omitted fields are cleared.
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	profile := &models.UserProfile{
		UserID:            userID,
		Age:               req.Age,
		WeightKg:          req.WeightKg,
		HeightCm:          req.HeightCm,
		DietaryPreference: validation.SanitizeText(req.DietaryPreference),
		Goals:             validation.SanitizeText(req.Goals),
	}
	if err := h.profiles.Upsert(r.Context(), profile); err != nil {
		respondAppError(w, h.logger, apperror.Store("save profile", err))
		return
	}

	h.logger.Debug("profile_saved", zap.String("user_id", userID.String()))
	respondJSON(w, http.StatusOK, profile)
}
