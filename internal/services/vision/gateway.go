package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single inference call
const DefaultTimeout = 10 * time.Second

// Detector runs object detection over one encoded frame
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]models.Candidate, error)
}

// Pinger is implemented by detectors that can report whether the model backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gateway fronts the detection model with availability checks and a per-call timeout.
// A Gateway without a detector reports every call as ErrModelUnavailable.
type Gateway struct {
	detector Detector
	timeout  time.Duration
	logger   *zap.Logger
}

// NewGateway creates a gateway. detector may be nil when no model is configured.
func NewGateway(detector Detector, timeout time.Duration, logger *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{detector: detector, timeout: timeout, logger: logger}
}

// Available reports whether a detector is configured
func (g *Gateway) Available() bool {
	return g != nil && g.detector != nil
}

// ModelLoaded reports whether the model backend currently answers
func (g *Gateway) ModelLoaded(ctx context.Context) bool {
	if !g.Available() {
		return false
	}
	p, ok := g.detector.(Pinger)
	if !ok {
		return true
	}
	return p.Ping(ctx) == nil
}

// Detect runs the model over frame. Timeouts and backend failures surface as ErrModelUnavailable.
func (g *Gateway) Detect(ctx context.Context, frame []byte) ([]models.Candidate, error) {
	if !g.Available() {
		return nil, apperror.ErrModelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	candidates, err := g.detector.Detect(ctx, frame)
	if err != nil {
		if errors.Is(err, apperror.ErrModelUnavailable) {
			return nil, err
		}
		g.logger.Warn("model_inference_failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", apperror.ErrModelUnavailable, err)
	}

	g.logger.Debug("model_inference_completed",
		zap.Int("candidates", len(candidates)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return candidates, nil
}
