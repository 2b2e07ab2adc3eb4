package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

type mockSessionRepo struct {
	database.SessionRepositoryInterface
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error) {
	return m.getByIDFunc(ctx, id)
}

type mockSuggestionRepo struct {
	mu         sync.Mutex
	createErr  error
	batchCalls [][]*models.Suggestion
}

func (m *mockSuggestionRepo) CreateBatch(ctx context.Context, suggestions []*models.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls = append(m.batchCalls, suggestions)
	return m.createErr
}

func (m *mockSuggestionRepo) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Suggestion, error) {
	return nil, nil
}

var _ database.SuggestionRepositoryInterface = (*mockSuggestionRepo)(nil)

func sessionWithMode(mode models.TrackingMode) *mockSessionRepo {
	return &mockSessionRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error) {
			return &models.TrackingSession{
				ID:        id,
				UserID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				Mode:      mode,
				Status:    models.SessionStatusActive,
				StartTime: time.Now(),
			}, nil
		},
	}
}

func TestEngine_Generate_ByMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode         models.TrackingMode
		wantCategory models.SuggestionCategory
		wantFirst    string
		wantSecond   string
	}{
		{
			mode:         models.TrackingModeCooking,
			wantCategory: models.SuggestionCategoryWasteReduction,
			wantFirst:    "Consider saving vegetable peels for making stock or compost",
			wantSecond:   "Batch cooking can save time and energy",
		},
		{
			mode:         models.TrackingModeEating,
			wantCategory: models.SuggestionCategoryHealth,
			wantFirst:    "Great portion control! This helps minimize waste",
			wantSecond:   "Try to finish what's on your plate to reduce food waste",
		},
		{
			mode:         models.TrackingModeSummary,
			wantCategory: models.SuggestionCategoryPlanning,
			wantFirst:    "Your tracking consistency is improving!",
			wantSecond:   "Consider meal planning to further reduce waste",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			store := &mockSuggestionRepo{}
			engine := NewEngine(sessionWithMode(tt.mode), store)
			sessionID := uuid.New()

			got, err := engine.Generate(context.Background(), sessionID, nil)
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("got %d suggestions, want 2", len(got))
			}
			if got[0].Text != tt.wantFirst || got[1].Text != tt.wantSecond {
				t.Errorf("unexpected texts: %q, %q", got[0].Text, got[1].Text)
			}
			for _, s := range got {
				if s.Category != tt.wantCategory {
					t.Errorf("category = %q, want %q", s.Category, tt.wantCategory)
				}
				if s.SessionID == nil || *s.SessionID != sessionID {
					t.Errorf("suggestion not linked to session %s", sessionID)
				}
			}
			if len(store.batchCalls) != 1 || len(store.batchCalls[0]) != 2 {
				t.Errorf("expected one persisted batch of 2, got %v", store.batchCalls)
			}
		})
	}
}

func TestEngine_Generate_IgnoresDetections(t *testing.T) {
	t.Parallel()

	engine := NewEngine(sessionWithMode(models.TrackingModeCooking), &mockSuggestionRepo{})

	none, err := engine.Generate(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	some, err := engine.Generate(context.Background(), uuid.New(), []*models.Detection{
		{Label: "apple", Confidence: 0.9},
		{Label: "banana", Confidence: 0.8},
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for i := range none {
		if none[i].Text != some[i].Text {
			t.Errorf("suggestion %d differs with detections: %q vs %q", i, none[i].Text, some[i].Text)
		}
	}
}

func TestEngine_Generate_UnknownMode(t *testing.T) {
	t.Parallel()

	store := &mockSuggestionRepo{}
	engine := NewEngine(sessionWithMode(models.TrackingMode("baking")), store)

	got, err := engine.Generate(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %v", got)
	}
	if len(store.batchCalls) != 0 {
		t.Error("nothing should be persisted for an unknown mode")
	}
}

func TestEngine_Generate_SessionNotFound(t *testing.T) {
	t.Parallel()

	sessions := &mockSessionRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error) {
			return nil, fmt.Errorf("tracking session %s: %w", id, database.ErrNotFound)
		},
	}
	engine := NewEngine(sessions, &mockSuggestionRepo{})

	_, err := engine.Generate(context.Background(), uuid.New(), nil)
	if !errors.Is(err, apperror.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEngine_Generate_StoreFailure(t *testing.T) {
	t.Parallel()

	engine := NewEngine(sessionWithMode(models.TrackingModeEating), &mockSuggestionRepo{createErr: errors.New("disk full")})

	_, err := engine.Generate(context.Background(), uuid.New(), nil)
	if !apperror.IsStoreFailure(err) {
		t.Errorf("expected StoreFailure, got %v", err)
	}
}

func TestEngine_Generate_CustomCap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cap  int
		want int
	}{
		{cap: 1, want: 1},
		{cap: 3, want: 3},
		{cap: 10, want: 3},
		{cap: 0, want: DefaultCap},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("cap_%d", tt.cap), func(t *testing.T) {
			t.Parallel()
			engine := NewEngine(sessionWithMode(models.TrackingModeSummary), &mockSuggestionRepo{}, WithCap(tt.cap))
			got, err := engine.Generate(context.Background(), uuid.New(), nil)
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d suggestions, want %d", len(got), tt.want)
			}
		})
	}
}
