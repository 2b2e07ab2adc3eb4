package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/request"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/tracking"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/vision"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultMaxFrameBytes caps a decoded frame when no limit is configured
	DefaultMaxFrameBytes = 8 << 20

	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// SessionService is the session lifecycle the tracking routes drive
type SessionService interface {
	Start(ctx context.Context, userID uuid.UUID, mode models.TrackingMode) (*models.TrackingSession, error)
	Current(ctx context.Context, userID uuid.UUID) (*models.TrackingSession, error)
	Stop(ctx context.Context, userID, sessionID uuid.UUID) (*models.TrackingSession, error)
	RecordWaste(ctx context.Context, userID uuid.UUID, wasteType string, quantityKg float64) (*models.WasteRecord, error)
}

// FrameProcessor runs one frame of a session through detection
type FrameProcessor interface {
	Process(ctx context.Context, sessionID uuid.UUID, frame []byte) (*tracking.FrameResult, error)
}

// TrackingHandler handles tracking session and frame requests
type TrackingHandler struct {
	sessions       SessionService
	frames         FrameProcessor
	logger         *zap.Logger
	maxFrameBytes  int
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// TrackingOption configures a TrackingHandler
type TrackingOption func(*TrackingHandler)

// WithMaxFrameBytes limits the decoded size of a single frame
func WithMaxFrameBytes(n int) TrackingOption {
	return func(h *TrackingHandler) {
		if n > 0 {
			h.maxFrameBytes = n
		}
	}
}

// WithAllowedOrigins restricts which browser origins may open the frame stream.
// "*" allows any origin.
func WithAllowedOrigins(origins []string) TrackingOption {
	return func(h *TrackingHandler) {
		h.allowedOrigins = origins
	}
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(sessions SessionService, frames FrameProcessor, logger *zap.Logger, opts ...TrackingOption) *TrackingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &TrackingHandler{
		sessions:      sessions,
		frames:        frames,
		logger:        logger,
		maxFrameBytes: DefaultMaxFrameBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 << 10,
		WriteBufferSize: 16 << 10,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// RegisterRoutes registers tracking routes on the given router
// The router should already have the /tracking prefix (e.g., from apiRouter.PathPrefix("/tracking"))
func (h *TrackingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/start", h.StartSession).Methods("POST")
	r.HandleFunc("/frame", h.ProcessFrame).Methods("POST")
	r.HandleFunc("/stop", h.StopSession).Methods("POST")
	r.HandleFunc("/current", h.CurrentSession).Methods("GET")
	r.HandleFunc("/waste", h.RecordWaste).Methods("POST")
	r.HandleFunc("/stream", h.Stream).Methods("GET")
}

type startRequest struct {
	Mode string `json:"mode" validate:"required,tracking_mode"`
}

type frameRequest struct {
	Image     string `json:"image" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type stopRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type wasteRequest struct {
	WasteType  string  `json:"waste_type" validate:"required,max=100"`
	QuantityKg float64 `json:"quantity_kg" validate:"gt=0"`
}

// frameResponse is a processed frame. SuggestionsFailed is set when detections were
// stored but suggestion generation did not complete.
type frameResponse struct {
	*tracking.FrameResult
	SuggestionsFailed bool `json:"suggestions_failed,omitempty"`
}

type stopResponse struct {
	Session           *models.TrackingSession `json:"session"`
	StatisticsUpdated bool                    `json:"statistics_updated"`
}

// StartSession handles POST /api/v1/tracking/start
func (h *TrackingHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errMalformedBody) {
			respondDecodeError(w, err)
			return
		}
		respondJSONError(w, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}

	session, err := h.sessions.Start(r.Context(), userID, models.TrackingMode(req.Mode))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// CurrentSession handles GET /api/v1/tracking/current.
// A user without an active session gets a null data field.
func (h *TrackingHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	session, err := h.sessions.Current(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNoActiveSession) {
			respondJSON(w, http.StatusOK, nil)
			return
		}
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// StopSession handles POST /api/v1/tracking/stop
func (h *TrackingHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	var req stopRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	sessionID, err := parseOptionalUUID(req.SessionID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	session, err := h.sessions.Stop(r.Context(), userID, sessionID)
	if err != nil {
		if session != nil && errors.Is(err, tracking.ErrStatisticsNotRecomputed) {
			respondJSON(w, http.StatusOK, stopResponse{Session: session, StatisticsUpdated: false})
			return
		}
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, stopResponse{Session: session, StatisticsUpdated: true})
}

// ProcessFrame handles POST /api/v1/tracking/frame
func (h *TrackingHandler) ProcessFrame(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	var req frameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	sessionID, err := parseOptionalUUID(req.SessionID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	frame, err := vision.ParseDataURI(req.Image)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if len(frame) > h.maxFrameBytes {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "frame_too_large", "frame exceeds the maximum size")
		return
	}

	resp, err := h.processFrame(r.Context(), userID, sessionID, frame)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// RecordWaste handles POST /api/v1/tracking/waste
func (h *TrackingHandler) RecordWaste(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	var req wasteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	record, err := h.sessions.RecordWaste(r.Context(), userID, req.WasteType, req.QuantityKg)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// processFrame runs frame against the caller's active session. A non-nil sessionID must
// name that session. Suggestion failures after detections were stored are reported in the
// response rather than as an error.
func (h *TrackingHandler) processFrame(ctx context.Context, userID, sessionID uuid.UUID, frame []byte) (*frameResponse, error) {
	session, err := h.sessions.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sessionID != uuid.Nil && sessionID != session.ID {
		return nil, apperror.ErrNoActiveSession
	}

	result, err := h.frames.Process(ctx, session.ID, frame)
	if err != nil {
		if result == nil {
			return nil, err
		}
		return &frameResponse{FrameResult: result, SuggestionsFailed: true}, nil
	}
	return &frameResponse{FrameResult: result}, nil
}

// checkOrigin allows non-browser clients (no Origin header) and the configured origins
func (h *TrackingHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// streamMessage is the envelope for every message sent on the frame stream
type streamMessage struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// streamConn serializes writes; pings come from a separate goroutine
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *streamConn) send(msg streamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *streamConn) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait))
}

// Stream handles GET /api/v1/tracking/stream.
// Each text message is a data URI and each binary message raw image bytes; every frame is
// processed against the caller's active session and answered with a result or error
// envelope. Frames on one connection are processed in order, one at a time.
func (h *TrackingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		h.logger.Debug("frame_stream_upgrade_failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	// base64 inflates frames by a third
	conn.SetReadLimit(int64(h.maxFrameBytes)*4/3 + 1024)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	stream := &streamConn{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(stream, done)

	h.logger.Debug("frame_stream_opened", zap.String("user_id", userID.String()))

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("frame_stream_read_failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		msg := h.handleStreamFrame(ctx, userID, msgType, data)
		if err := stream.send(msg); err != nil {
			h.logger.Debug("frame_stream_write_failed", zap.Error(err))
			return
		}
	}
}

func (h *TrackingHandler) handleStreamFrame(ctx context.Context, userID uuid.UUID, msgType int, data []byte) streamMessage {
	frame := data
	if msgType == websocket.TextMessage {
		var err error
		frame, err = vision.ParseDataURI(string(data))
		if err != nil {
			return h.streamError(err)
		}
	}
	if len(frame) > h.maxFrameBytes {
		return streamMessage{Type: "error", Error: "frame_too_large", Message: "frame exceeds the maximum size"}
	}

	resp, err := h.processFrame(ctx, userID, uuid.Nil, frame)
	if err != nil {
		return h.streamError(err)
	}
	return streamMessage{Type: "result", Data: resp}
}

func (h *TrackingHandler) streamError(err error) streamMessage {
	status, errType, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("frame_stream_failed", zap.String("error_type", errType), zap.Error(err))
	}
	return streamMessage{Type: "error", Error: errType, Message: message}
}

func (h *TrackingHandler) keepAlive(stream *streamConn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}
