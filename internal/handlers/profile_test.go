package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type mockProfileRepo struct {
	profiles map[uuid.UUID]*models.UserProfile
	err      error
	saves    int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: map[uuid.UUID]*models.UserProfile{}}
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileRepo) Upsert(_ context.Context, profile *models.UserProfile) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	profile.UpdatedAt = time.Now().UTC()
	m.profiles[profile.UserID] = profile
	return nil
}

func profileRouter(repo *mockProfileRepo) *mux.Router {
	r := mux.NewRouter()
	NewProfileHandler(repo, nil).RegisterRoutes(r.PathPrefix("/api/v1/profile").Subrouter())
	return r
}

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Parallel()

	age := 34
	userID := uuid.New()

	tests := []struct {
		name       string
		caller     uuid.UUID
		repoErr    error
		wantStatus int
		wantError  string
	}{
		{name: "saved profile", caller: userID, wantStatus: http.StatusOK},
		{name: "no profile yet", caller: uuid.New(), wantStatus: http.StatusNotFound, wantError: "profile_not_found"},
		{name: "store failure", caller: userID, repoErr: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantError: "store_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newMockProfileRepo()
			repo.err = tt.repoErr
			repo.profiles[userID] = &models.UserProfile{UserID: userID, Age: &age, DietaryPreference: "vegetarian"}

			w := httptest.NewRecorder()
			profileRouter(repo).ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/profile", nil, tt.caller))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			body := decodeBody(t, w)
			if tt.wantError != "" {
				if body["error"] != tt.wantError {
					t.Errorf("error = %v, want %s", body["error"], tt.wantError)
				}
				return
			}
			data := body["data"].(map[string]any)
			if data["age"] != float64(34) || data["dietary_preference"] != "vegetarian" {
				t.Errorf("unexpected profile payload: %v", data)
			}
			if data["weight_kg"] != nil {
				t.Errorf("weight_kg = %v, want null when unset", data["weight_kg"])
			}
		})
	}
}

func TestProfileHandler_SaveProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantSaved  bool
	}{
		{
			name: "full profile",
			body: map[string]any{
				"age": 29, "weight_kg": 61.5, "height_cm": 170,
				"dietary_preference": "vegan", "goals": "  eat more greens\x00 ",
			},
			wantStatus: http.StatusOK,
			wantSaved:  true,
		},
		{name: "empty profile", body: map[string]any{}, wantStatus: http.StatusOK, wantSaved: true},
		{name: "negative age", body: map[string]any{"age": -1}, wantStatus: http.StatusBadRequest},
		{name: "implausible height", body: map[string]any{"height_cm": 900}, wantStatus: http.StatusBadRequest},
		{name: "zero weight", body: map[string]any{"weight_kg": 0}, wantStatus: http.StatusBadRequest},
		{name: "preference too long", body: map[string]any{"dietary_preference": strings.Repeat("a", 51)}, wantStatus: http.StatusBadRequest},
		{name: "wrong type", body: map[string]any{"age": "old"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			userID := uuid.New()
			repo := newMockProfileRepo()
			w := httptest.NewRecorder()
			profileRouter(repo).ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/profile", tt.body, userID))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			saved, ok := repo.profiles[userID]
			if ok != tt.wantSaved {
				t.Fatalf("profile saved = %v, want %v", ok, tt.wantSaved)
			}
			if !tt.wantSaved {
				if body := decodeBody(t, w); body["error"] != "validation_error" {
					t.Errorf("error = %v, want validation_error", body["error"])
				}
				return
			}
			if saved.UserID != userID {
				t.Errorf("saved for %s, want caller %s", saved.UserID, userID)
			}
			if tt.name == "full profile" {
				if saved.Age == nil || *saved.Age != 29 || saved.WeightKg == nil || *saved.WeightKg != 61.5 {
					t.Errorf("unexpected saved profile: %+v", saved)
				}
				if saved.Goals != "eat more greens" {
					t.Errorf("goals = %q, want sanitized text", saved.Goals)
				}
			}
		})
	}
}

func TestProfileHandler_SaveReplacesPreviousProfile(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	age := 40
	repo := newMockProfileRepo()
	repo.profiles[userID] = &models.UserProfile{UserID: userID, Age: &age, Goals: "lose weight"}

	w := httptest.NewRecorder()
	profileRouter(repo).ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/profile", map[string]any{"goals": "cook at home"}, userID))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	saved := repo.profiles[userID]
	if saved.Age != nil || saved.Goals != "cook at home" {
		t.Errorf("profile = %+v, want age cleared and goals replaced", saved)
	}
	if repo.saves != 1 {
		t.Errorf("saves = %d, want 1", repo.saves)
	}
}

func TestProfileHandler_Unauthenticated(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodGet, http.MethodPut} {
		w := httptest.NewRecorder()
		profileRouter(newMockProfileRepo()).ServeHTTP(w, newTestRequest(method, "/api/v1/profile", map[string]any{}))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", method, w.Code)
		}
	}
}

func TestProfileHandler_SaveStoreFailure(t *testing.T) {
	t.Parallel()

	repo := newMockProfileRepo()
	repo.err = errors.New("connection reset")
	w := httptest.NewRecorder()
	profileRouter(repo).ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/profile", map[string]any{"age": 30}, uuid.New()))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "store_failure" {
		t.Errorf("error = %v, want store_failure", body["error"])
	}
}
