package tracking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
)

// fakeSessions is an in-memory SessionRepositoryInterface enforcing one active session per user
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.TrackingSession
	getErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[uuid.UUID]*models.TrackingSession)}
}

func (f *fakeSessions) Create(ctx context.Context, s *models.TrackingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.UserID == s.UserID && existing.Status == models.SessionStatusActive {
			return fmt.Errorf("insert: %w", database.ErrConflict)
		}
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) GetByID(ctx context.Context, id uuid.UUID) (*models.TrackingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("tracking session %s: %w", id, database.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.TrackingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == models.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("active session: %w", database.ErrNotFound)
}

func (f *fakeSessions) Complete(ctx context.Context, id uuid.UUID, endTime time.Time) (*models.TrackingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("active tracking session %s: %w", id, database.ErrNotFound)
	}
	s.Status = models.SessionStatusCompleted
	s.EndTime = &endTime
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) CountCompletedByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == models.SessionStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.TrackingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TrackingSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// put inserts a session directly, bypassing the uniqueness check
func (f *fakeSessions) put(s *models.TrackingSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
}

type fakeDetections struct {
	mu        sync.Mutex
	stored    []*models.Detection
	batches   int
	createErr error
	// sessions, when set, rejects batches for sessions that are not active
	sessions *fakeSessions
}

func (f *fakeDetections) CreateBatch(ctx context.Context, sessionID uuid.UUID, detections []*models.Detection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.sessions != nil {
		s, err := f.sessions.GetByID(ctx, sessionID)
		if err != nil || !s.IsActive() {
			return fmt.Errorf("tracking session %s: %w", sessionID, database.ErrSessionNotActive)
		}
	}
	f.batches++
	f.stored = append(f.stored, detections...)
	return nil
}

func (f *fakeDetections) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*models.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Detection
	for _, d := range f.stored {
		if d.SessionID == sessionID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDetections) ListRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Detection, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDetections) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeWaste struct {
	database.WasteRepositoryInterface
	mu      sync.Mutex
	records []*models.WasteRecord
}

func (f *fakeWaste) Create(ctx context.Context, r *models.WasteRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

type fakeSlots struct {
	mu     sync.Mutex
	slots  map[uuid.UUID]uuid.UUID
	getErr error
}

func newFakeSlots() *fakeSlots {
	return &fakeSlots{slots: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeSlots) Get(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return uuid.Nil, false, f.getErr
	}
	id, ok := f.slots[userID]
	return id, ok, nil
}

func (f *fakeSlots) Set(ctx context.Context, userID, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[userID] = sessionID
	return nil
}

func (f *fakeSlots) Release(ctx context.Context, userID, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slots[userID] == sessionID {
		delete(f.slots, userID)
	}
	return nil
}

var _ SlotStore = (*fakeSlots)(nil)

type fakeTrigger struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (f *fakeTrigger) TriggerRecompute(ctx context.Context, userID, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sessionID)
	return f.err
}

type fakeGateway struct {
	available  bool
	detectFunc func(ctx context.Context, frame []byte) ([]models.Candidate, error)
	calls      int
	mu         sync.Mutex
}

func (f *fakeGateway) Available() bool {
	return f.available
}

func (f *fakeGateway) Detect(ctx context.Context, frame []byte) ([]models.Candidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.detectFunc(ctx, frame)
}

func candidates(c ...models.Candidate) func(context.Context, []byte) ([]models.Candidate, error) {
	return func(context.Context, []byte) ([]models.Candidate, error) { return c, nil }
}

type fakeSuggestions struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSuggestions) Generate(ctx context.Context, sessionID uuid.UUID, detections []*models.Detection) ([]*models.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Suggestion{{ID: uuid.New(), SessionID: &sessionID, Text: "tip"}}, nil
}

var (
	_ database.SessionRepositoryInterface   = (*fakeSessions)(nil)
	_ database.DetectionRepositoryInterface = (*fakeDetections)(nil)
	_ ModelGateway                          = (*fakeGateway)(nil)
	_ SuggestionGenerator                   = (*fakeSuggestions)(nil)
	_ StatisticsTrigger                     = (*fakeTrigger)(nil)
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}
