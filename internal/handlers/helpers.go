package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/tracking"
	"github.com/SKYGOD07/Arjuna-Project/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// modelRetryAfter is the Retry-After value sent while the detection model is unavailable
const modelRetryAfter = 5 * time.Second

// errMalformedBody marks request bodies that are not valid JSON
var errMalformedBody = errors.New("malformed JSON body")

// errorEnvelope is the body of every failed API response
type errorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage caps messages so long driver errors never reach clients verbatim
func sanitizeErrorMessage(message string) string {
	if len(message) > 200 {
		return message[:200] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := errorEnvelope{
		Success:   false,
		Error:     errorType,
		Message:   sanitizeErrorMessage(message),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// errorStatus maps a domain error to its HTTP status, error type and client message
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, apperror.ErrInvalidMode):
		return http.StatusBadRequest, "invalid_mode", "mode must be one of cooking, eating, summary"
	case errors.Is(err, apperror.ErrDecode):
		return http.StatusBadRequest, "decode_error", "frame could not be decoded as an image"
	case errors.Is(err, tracking.ErrInvalidWaste):
		return http.StatusBadRequest, "invalid_waste", err.Error()
	case errors.Is(err, apperror.ErrNoActiveSession):
		return http.StatusConflict, "no_active_session", "no active tracking session"
	case errors.Is(err, apperror.ErrSessionAlreadyActive):
		return http.StatusConflict, "session_already_active", "a tracking session is already active"
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found", "tracking session not found"
	case errors.Is(err, apperror.ErrUserStatsNotFound):
		return http.StatusNotFound, "user_stats_not_found", "user statistics not found"
	case errors.Is(err, apperror.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found", "profile not found"
	case errors.Is(err, apperror.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable", "detection model is unavailable, retry shortly"
	case apperror.IsStoreFailure(err):
		return http.StatusInternalServerError, "store_failure", "storage is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

// respondAppError translates err into the API error envelope.
// Server-side failures are logged; client errors are not.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, errType, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed", zap.String("error_type", errType), zap.Error(err))
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(modelRetryAfter.Seconds())))
	}
	respondJSONError(w, status, errType, message)
}

// decodeJSON reads a JSON body into dst and validates it.
// An empty body decodes to the zero value so optional-body endpoints accept it.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return validation.Struct(dst)
}

// respondDecodeError reports a decodeJSON failure: 413 for oversized bodies, 400 otherwise
func respondDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
		return
	}
	respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
}

// parseOptionalUUID parses s, treating an empty string as uuid.Nil
func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session_id: %w", err)
	}
	return id, nil
}
