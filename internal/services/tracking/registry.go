package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	logpkg "github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotStore holds each user's current-session pointer outside the database
type SlotStore interface {
	Get(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
	Set(ctx context.Context, userID, sessionID uuid.UUID) error
	Release(ctx context.Context, userID, sessionID uuid.UUID) error
}

// StatisticsTrigger is notified when a session completes
type StatisticsTrigger interface {
	TriggerRecompute(ctx context.Context, userID, sessionID uuid.UUID) error
}

// FrameGate lets Stop wait out a frame that is still being processed for the session
type FrameGate interface {
	LockSession(sessionID uuid.UUID) func()
}

// ErrInvalidWaste indicates a waste record without type or with a non-positive quantity
var ErrInvalidWaste = errors.New("waste type and a positive quantity are required")

// ErrStatisticsNotRecomputed wraps a recompute failure that happened after a session was stopped
var ErrStatisticsNotRecomputed = errors.New("session stopped but statistics were not recomputed")

// Registry owns the tracking session lifecycle and each user's current-session slot.
// Start and Stop for one user never interleave.
type Registry struct {
	sessions database.SessionRepositoryInterface
	waste    database.WasteRepositoryInterface
	slots    SlotStore
	trigger  StatisticsTrigger
	frames   FrameGate
	logger   *zap.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithFrameGate makes Stop wait for the session's in-flight frame before completing it
func WithFrameGate(gate FrameGate) RegistryOption {
	return func(r *Registry) {
		r.frames = gate
	}
}

// NewRegistry creates a session registry. slots and trigger may be nil.
func NewRegistry(
	sessions database.SessionRepositoryInterface,
	waste database.WasteRepositoryInterface,
	slots SlotStore,
	trigger StatisticsTrigger,
	logger *zap.Logger,
	opts ...RegistryOption,
) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		sessions: sessions,
		waste:    waste,
		slots:    slots,
		trigger:  trigger,
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start opens a new active session for the user
func (r *Registry) Start(ctx context.Context, userID uuid.UUID, mode models.TrackingMode) (*models.TrackingSession, error) {
	if !mode.Valid() {
		return nil, apperror.ErrInvalidMode
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	current, err := r.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, apperror.ErrSessionAlreadyActive
	}

	session := &models.TrackingSession{
		ID:        uuid.New(),
		UserID:    userID,
		Mode:      mode,
		Status:    models.SessionStatusActive,
		StartTime: r.now(),
	}
	if err := r.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, apperror.ErrSessionAlreadyActive
		}
		return nil, apperror.Store("create session", err)
	}

	r.setSlot(ctx, userID, session.ID)

	r.logger.Info("tracking_session_started",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.String("session_id", session.ID.String()),
		zap.String("mode", string(mode)),
	)
	return session, nil
}

// Current returns the user's active session or ErrNoActiveSession
func (r *Registry) Current(ctx context.Context, userID uuid.UUID) (*models.TrackingSession, error) {
	session, err := r.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.ErrNoActiveSession
	}
	return session, nil
}

// Stop completes the user's active session and recomputes their statistics before returning.
// A non-nil sessionID must match the active session. If the recompute fails the completed
// session is still returned together with an error wrapping ErrStatisticsNotRecomputed.
func (r *Registry) Stop(ctx context.Context, userID, sessionID uuid.UUID) (*models.TrackingSession, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	current, err := r.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil || (sessionID != uuid.Nil && sessionID != current.ID) {
		return nil, apperror.ErrNoActiveSession
	}

	if r.frames != nil {
		release := r.frames.LockSession(current.ID)
		defer release()
	}

	completed, err := r.sessions.Complete(ctx, current.ID, r.now())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			r.releaseSlot(ctx, userID, current.ID)
			return nil, apperror.ErrNoActiveSession
		}
		return nil, apperror.Store("complete session", err)
	}

	r.releaseSlot(ctx, userID, completed.ID)

	r.logger.Info("tracking_session_stopped",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.String("session_id", completed.ID.String()),
		zap.Duration("duration", completed.EndTime.Sub(completed.StartTime)),
	)

	if r.trigger != nil {
		if err := r.trigger.TriggerRecompute(ctx, userID, completed.ID); err != nil {
			r.logger.Error("statistics_recompute_failed",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("session_id", completed.ID.String()),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			return completed, fmt.Errorf("%w: %w", ErrStatisticsNotRecomputed, err)
		}
	}

	return completed, nil
}

// RecordWaste logs a waste quantity against the user's active session
func (r *Registry) RecordWaste(ctx context.Context, userID uuid.UUID, wasteType string, quantityKg float64) (*models.WasteRecord, error) {
	wasteType = validation.SanitizeText(wasteType)
	if wasteType == "" || quantityKg <= 0 {
		return nil, ErrInvalidWaste
	}

	session, err := r.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	record := &models.WasteRecord{
		ID:         uuid.New(),
		SessionID:  session.ID,
		WasteType:  wasteType,
		QuantityKg: quantityKg,
		RecordedAt: r.now(),
	}
	if err := r.waste.Create(ctx, record); err != nil {
		return nil, apperror.Store("create waste record", err)
	}

	r.logger.Debug("waste_recorded",
		zap.String("session_id", session.ID.String()),
		zap.String("waste_type", logpkg.SanitizeLabel(wasteType)),
		zap.Float64("quantity_kg", quantityKg),
	)
	return record, nil
}

// current resolves the user's active session from the slot, falling back to the database.
// Returns (nil, nil) when the user has no active session.
func (r *Registry) current(ctx context.Context, userID uuid.UUID) (*models.TrackingSession, error) {
	if r.slots != nil {
		sessionID, ok, err := r.slots.Get(ctx, userID)
		switch {
		case err != nil:
			r.logger.Warn("session_slot_read_failed", zap.String("error", logpkg.SanitizeError(err)))
		case ok:
			session, err := r.sessions.GetByID(ctx, sessionID)
			if err == nil && session.IsActive() && session.UserID == userID {
				return session, nil
			}
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				return nil, apperror.Store("load session", err)
			}
			r.releaseSlot(ctx, userID, sessionID)
		}
	}

	session, err := r.sessions.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, apperror.Store("load active session", err)
	}

	r.setSlot(ctx, userID, session.ID)
	return session, nil
}

func (r *Registry) setSlot(ctx context.Context, userID, sessionID uuid.UUID) {
	if r.slots == nil {
		return
	}
	if err := r.slots.Set(ctx, userID, sessionID); err != nil {
		r.logger.Warn("session_slot_write_failed", zap.String("error", logpkg.SanitizeError(err)))
	}
}

func (r *Registry) releaseSlot(ctx context.Context, userID, sessionID uuid.UUID) {
	if r.slots == nil {
		return
	}
	if err := r.slots.Release(ctx, userID, sessionID); err != nil {
		r.logger.Warn("session_slot_release_failed", zap.String("error", logpkg.SanitizeError(err)))
	}
}
