package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/talkheal/gesturemode/internal/hook"
	"github.com/talkheal/gesturemode/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

type hookSet map[string]bool

func (h hookSet) Get(name string) (*hook.Hook, error) {
	if !h[name] {
		return nil, hook.ErrHookNotFound
	}
	return &hook.Hook{Manifest: hook.Manifest{Name: name}}, nil
}

func newBindingRouter(t *testing.T) (*httprouter.Router, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	router := httprouter.New()
	NewBindingHandler(s, hookSet{"chat-relay": true, "beep": true}).Register(router)
	return router, s
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBindingHandler_List(t *testing.T) {
	router, s := newBindingRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/bindings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var empty listBindingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&empty); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if empty.Bindings == nil || len(empty.Bindings) != 0 {
		t.Errorf("expected empty non-nil list, got %v", empty.Bindings)
	}

	if err := s.Bindings().Create(&store.Binding{ID: "b1", Gesture: "OK", HookName: "beep", Action: "send", Enabled: true}); err != nil {
		t.Fatalf("failed to create binding: %v", err)
	}

	rec = doJSON(router, http.MethodGet, "/api/bindings", "")
	var response listBindingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(response.Bindings))
	}
	if response.Bindings[0].Gesture != "OK" || response.Bindings[0].Hook != "beep" {
		t.Errorf("unexpected binding: %+v", response.Bindings[0])
	}
}

func TestBindingHandler_Create(t *testing.T) {
	router, s := newBindingRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/bindings",
		`{"gesture":"Pointer + Clockwise","hook":"chat-relay","action":"send","config":{"text":"next"}}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created bindingResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if !created.Enabled {
		t.Error("new bindings should be enabled")
	}

	stored, err := s.Bindings().GetByGesture("Pointer + Clockwise")
	if err != nil || stored == nil {
		t.Fatalf("binding not stored: %v", err)
	}
	if string(stored.Config) != `{"text":"next"}` {
		t.Errorf("config = %s", stored.Config)
	}
}

func TestBindingHandler_Create_Validation(t *testing.T) {
	router, _ := newBindingRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{nope`, http.StatusBadRequest},
		{"missing gesture", `{"hook":"beep","action":"send"}`, http.StatusBadRequest},
		{"missing hook", `{"gesture":"OK","action":"send"}`, http.StatusBadRequest},
		{"missing action", `{"gesture":"OK","hook":"beep"}`, http.StatusBadRequest},
		{"unknown hook", `{"gesture":"OK","hook":"ghost","action":"send"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(router, http.MethodPost, "/api/bindings", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBindingHandler_Create_Duplicate(t *testing.T) {
	router, _ := newBindingRouter(t)

	body := `{"gesture":"OK","hook":"beep","action":"send"}`
	if rec := doJSON(router, http.MethodPost, "/api/bindings", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodPost, "/api/bindings", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestBindingHandler_GetUpdateDelete(t *testing.T) {
	router, s := newBindingRouter(t)

	if err := s.Bindings().Create(&store.Binding{ID: "b1", Gesture: "OK", HookName: "beep", Action: "send", Enabled: true}); err != nil {
		t.Fatalf("failed to create binding: %v", err)
	}
	if err := s.Bindings().Create(&store.Binding{ID: "b2", Gesture: "Open", HookName: "beep", Action: "send", Enabled: true}); err != nil {
		t.Fatalf("failed to create binding: %v", err)
	}

	rec := doJSON(router, http.MethodGet, "/api/bindings/b1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(router, http.MethodPut, "/api/bindings/b1", `{"hook":"chat-relay","enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated, err := s.Bindings().GetByID("b1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if updated.HookName != "chat-relay" || updated.Enabled {
		t.Errorf("update not applied: %+v", updated)
	}

	if rec := doJSON(router, http.MethodPut, "/api/bindings/b1", `{"gesture":"Open"}`); rec.Code != http.StatusConflict {
		t.Errorf("rebinding to a taken gesture: status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if rec := doJSON(router, http.MethodPut, "/api/bindings/b1", `{"hook":"ghost"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown hook: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if rec := doJSON(router, http.MethodDelete, "/api/bindings/b1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/api/bindings/b1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestBindingHandler_NotFound(t *testing.T) {
	router, _ := newBindingRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := ""
		if method == http.MethodPut {
			body = `{}`
		}
		if rec := doJSON(router, method, "/api/bindings/missing", body); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", method, rec.Code, http.StatusNotFound)
		}
	}
}

func TestBindingHandler_MethodNotAllowed(t *testing.T) {
	router, _ := newBindingRouter(t)

	rec := doJSON(router, http.MethodPatch, "/api/bindings", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestBindingHandler_NilHooksSkipsCheck(t *testing.T) {
	s := newTestStore(t)
	router := httprouter.New()
	NewBindingHandler(s, nil).Register(router)

	rec := doJSON(router, http.MethodPost, "/api/bindings", `{"gesture":"OK","hook":"anything","action":"send"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}
