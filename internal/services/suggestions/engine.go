package suggestions

import (
	"context"
	"errors"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCap is how many rule entries are emitted per invocation
const DefaultCap = 2

// rule is the ordered suggestion table for one tracking mode
type rule struct {
	category models.SuggestionCategory
	texts    []string
}

var rules = map[models.TrackingMode]rule{
	models.TrackingModeCooking: {
		category: models.SuggestionCategoryWasteReduction,
		texts: []string{
			"Consider saving vegetable peels for making stock or compost",
			"Batch cooking can save time and energy",
			"Store leftovers properly to extend their shelf life",
		},
	},
	models.TrackingModeEating: {
		category: models.SuggestionCategoryHealth,
		texts: []string{
			"Great portion control! This helps minimize waste",
			"Try to finish what's on your plate to reduce food waste",
			"Consider sharing larger portions with others",
		},
	},
	models.TrackingModeSummary: {
		category: models.SuggestionCategoryPlanning,
		texts: []string{
			"Your tracking consistency is improving!",
			"Consider meal planning to further reduce waste",
			"You're making good progress in waste reduction",
		},
	},
}

// Engine produces rule-based suggestions for a session's mode
type Engine struct {
	sessions    database.SessionRepositoryInterface
	suggestions database.SuggestionRepositoryInterface
	cap         int
	logger      *zap.Logger
	now         func() time.Time
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithCap overrides how many suggestions are emitted per invocation
func WithCap(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.cap = n
		}
	}
}

// WithLogger sets the engine's logger
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a suggestion engine
func NewEngine(sessions database.SessionRepositoryInterface, suggestions database.SuggestionRepositoryInterface, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions:    sessions,
		suggestions: suggestions,
		cap:         DefaultCap,
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate emits and persists the first cap rule entries for the session's mode.
// Detection content does not influence the output yet; an unknown mode yields an empty list.
func (e *Engine) Generate(ctx context.Context, sessionID uuid.UUID, detections []*models.Detection) ([]*models.Suggestion, error) {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.ErrSessionNotFound
		}
		return nil, apperror.Store("load session", err)
	}

	r, ok := rules[session.Mode]
	if !ok {
		e.logger.Debug("no_suggestion_rules_for_mode",
			zap.String("session_id", sessionID.String()),
			zap.String("mode", string(session.Mode)),
		)
		return []*models.Suggestion{}, nil
	}

	n := min(e.cap, len(r.texts))
	now := e.now()
	sid := session.ID
	out := make([]*models.Suggestion, 0, n)
	for _, text := range r.texts[:n] {
		out = append(out, &models.Suggestion{
			ID:        uuid.New(),
			UserID:    session.UserID,
			SessionID: &sid,
			Text:      text,
			Category:  r.category,
			CreatedAt: now,
		})
	}

	if err := e.suggestions.CreateBatch(ctx, out); err != nil {
		return nil, apperror.Store("create suggestions", err)
	}

	e.logger.Debug("suggestions_generated",
		zap.String("session_id", sessionID.String()),
		zap.String("category", string(r.category)),
		zap.Int("count", len(out)),
		zap.Int("detections", len(detections)),
	)
	return out, nil
}
