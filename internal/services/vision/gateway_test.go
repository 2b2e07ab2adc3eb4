package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
)

type mockDetector struct {
	detectFunc func(ctx context.Context, frame []byte) ([]models.Candidate, error)
	pingErr    error
}

func (m *mockDetector) Detect(ctx context.Context, frame []byte) ([]models.Candidate, error) {
	return m.detectFunc(ctx, frame)
}

func (m *mockDetector) Ping(ctx context.Context) error {
	return m.pingErr
}

var (
	_ Detector = (*mockDetector)(nil)
	_ Pinger   = (*mockDetector)(nil)
	_ Detector = (*WebSocketDetector)(nil)
	_ Pinger   = (*WebSocketDetector)(nil)
)

func TestGateway_NoDetector(t *testing.T) {
	t.Parallel()

	g := NewGateway(nil, time.Second, nil)
	if g.Available() {
		t.Error("gateway without detector should not be available")
	}
	if g.ModelLoaded(context.Background()) {
		t.Error("gateway without detector should not report model loaded")
	}
	_, err := g.Detect(context.Background(), []byte("frame"))
	if !errors.Is(err, apperror.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGateway_Detect(t *testing.T) {
	t.Parallel()

	want := []models.Candidate{{Label: "apple", Confidence: 0.9}}
	g := NewGateway(&mockDetector{
		detectFunc: func(ctx context.Context, frame []byte) ([]models.Candidate, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected detector context to carry a deadline")
			}
			return want, nil
		},
	}, time.Second, nil)

	got, err := g.Detect(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Label != "apple" {
		t.Errorf("unexpected candidates: %+v", got)
	}
}

func TestGateway_DetectFailureMapsToModelUnavailable(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockDetector{
		detectFunc: func(ctx context.Context, frame []byte) ([]models.Candidate, error) {
			return nil, errors.New("connection reset")
		},
	}, time.Second, nil)

	_, err := g.Detect(context.Background(), []byte("frame"))
	if !errors.Is(err, apperror.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGateway_DetectTimeout(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockDetector{
		detectFunc: func(ctx context.Context, frame []byte) ([]models.Candidate, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := g.Detect(context.Background(), []byte("frame"))
	if !errors.Is(err, apperror.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("detect did not honour the gateway timeout")
	}
}

func TestGateway_ModelLoaded(t *testing.T) {
	t.Parallel()

	up := NewGateway(&mockDetector{}, time.Second, nil)
	if !up.ModelLoaded(context.Background()) {
		t.Error("expected model loaded when ping succeeds")
	}

	down := NewGateway(&mockDetector{pingErr: errors.New("down")}, time.Second, nil)
	if down.ModelLoaded(context.Background()) {
		t.Error("expected model not loaded when ping fails")
	}
}
