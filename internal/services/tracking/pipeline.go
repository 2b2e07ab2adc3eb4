package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/services/vision"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultConfidenceThreshold is the exclusive lower bound a candidate's confidence must exceed
const DefaultConfidenceThreshold = 0.5

var tracer = otel.Tracer("github.com/SKYGOD07/Arjuna-Project/internal/services/tracking")

// ModelGateway runs object detection over one frame
type ModelGateway interface {
	Available() bool
	Detect(ctx context.Context, frame []byte) ([]models.Candidate, error)
}

// SuggestionGenerator derives suggestions for a session after each frame
type SuggestionGenerator interface {
	Generate(ctx context.Context, sessionID uuid.UUID, detections []*models.Detection) ([]*models.Suggestion, error)
}

// FrameResult is what one processed frame produced
type FrameResult struct {
	SessionID   uuid.UUID            `json:"session_id"`
	Detections  []*models.Detection  `json:"detections"`
	Suggestions []*models.Suggestion `json:"suggestions"`
}

// Pipeline turns frames into persisted detections and suggestions
type Pipeline struct {
	sessions    database.SessionRepositoryInterface
	detections  database.DetectionRepositoryInterface
	gateway     ModelGateway
	suggestions SuggestionGenerator
	threshold   float64
	logger      *zap.Logger
	locks       *keyedMutex
	now         func() time.Time
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithConfidenceThreshold overrides the detection confidence cutoff
func WithConfidenceThreshold(threshold float64) PipelineOption {
	return func(p *Pipeline) {
		if threshold >= 0 && threshold < 1 {
			p.threshold = threshold
		}
	}
}

// WithLogger sets the pipeline's logger
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a frame pipeline
func NewPipeline(
	sessions database.SessionRepositoryInterface,
	detections database.DetectionRepositoryInterface,
	gateway ModelGateway,
	suggestions SuggestionGenerator,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		sessions:    sessions,
		detections:  detections,
		gateway:     gateway,
		suggestions: suggestions,
		threshold:   DefaultConfidenceThreshold,
		logger:      zap.NewNop(),
		locks:       newKeyedMutex(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one frame through detection, persistence and suggestion generation.
// Frames of the same session are processed one at a time. When suggestion generation
// fails after detections were committed, the result still carries the detections.
func (p *Pipeline) Process(ctx context.Context, sessionID uuid.UUID, frame []byte) (result *FrameResult, err error) {
	ctx, span := tracer.Start(ctx, "tracking.process_frame")
	span.SetAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.Int("frame.bytes", len(frame)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock := p.locks.Lock(sessionID)
	defer unlock()

	session, err := p.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.ErrNoActiveSession
		}
		return nil, apperror.Store("load session", err)
	}
	if !session.IsActive() {
		return nil, apperror.ErrNoActiveSession
	}

	if !p.gateway.Available() {
		return nil, apperror.ErrModelUnavailable
	}

	if _, _, err := vision.DecodeFrame(frame); err != nil {
		return nil, err
	}

	candidates, err := p.gateway.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	detections := p.filter(session.ID, candidates)
	span.SetAttributes(
		attribute.Int("detections.candidates", len(candidates)),
		attribute.Int("detections.kept", len(detections)),
	)

	if err := p.detections.CreateBatch(ctx, session.ID, detections); err != nil {
		if errors.Is(err, database.ErrSessionNotActive) {
			return nil, apperror.ErrNoActiveSession
		}
		return nil, apperror.Store("create detections", err)
	}

	result = &FrameResult{SessionID: session.ID, Detections: detections}

	suggestions, err := p.suggestions.Generate(ctx, session.ID, detections)
	if err != nil {
		p.logger.Warn("suggestion_generation_failed",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
		return result, err
	}
	result.Suggestions = suggestions

	p.logger.Debug("frame_processed",
		zap.String("session_id", session.ID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("detections", len(detections)),
		zap.Int("suggestions", len(suggestions)),
	)
	return result, nil
}

// LockSession blocks until no frame of sessionID is in flight and keeps new frames out
// until the returned func is called
func (p *Pipeline) LockSession(sessionID uuid.UUID) func() {
	return p.locks.Lock(sessionID)
}

// filter keeps candidates strictly above the threshold, one detection per candidate
func (p *Pipeline) filter(sessionID uuid.UUID, candidates []models.Candidate) []*models.Detection {
	now := p.now()
	detections := make([]*models.Detection, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence <= p.threshold || c.Confidence > 1 {
			continue
		}
		detections = append(detections, &models.Detection{
			ID:         uuid.New(),
			SessionID:  sessionID,
			Label:      c.Label,
			Confidence: c.Confidence,
			Source:     models.DetectionSourceYOLO,
			DetectedAt: now,
		})
	}
	return detections
}
