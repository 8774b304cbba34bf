// Package api implements the JSON handlers behind /api.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/talkheal/gesturemode/internal/hook"
	"github.com/talkheal/gesturemode/internal/store"
)

// HookLookup resolves hook names for binding validation.
type HookLookup interface {
	Get(name string) (*hook.Hook, error)
}

// BindingHandler serves /api/bindings.
type BindingHandler struct {
	store *store.Store
	hooks HookLookup
}

// NewBindingHandler creates a BindingHandler. hooks may be nil, in which
// case hook names are not checked.
func NewBindingHandler(s *store.Store, hooks HookLookup) *BindingHandler {
	return &BindingHandler{store: s, hooks: hooks}
}

// Register adds the binding routes to router.
func (h *BindingHandler) Register(router *httprouter.Router) {
	router.GET("/api/bindings", h.list)
	router.POST("/api/bindings", h.create)
	router.GET("/api/bindings/:id", h.get)
	router.PUT("/api/bindings/:id", h.update)
	router.DELETE("/api/bindings/:id", h.delete)
}

type createBindingRequest struct {
	Gesture string          `json:"gesture"`
	Hook    string          `json:"hook"`
	Action  string          `json:"action"`
	Config  json.RawMessage `json:"config"`
}

type updateBindingRequest struct {
	Gesture string          `json:"gesture"`
	Hook    string          `json:"hook"`
	Action  string          `json:"action"`
	Config  json.RawMessage `json:"config"`
	Enabled *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID        string          `json:"id"`
	Gesture   string          `json:"gesture"`
	Hook      string          `json:"hook"`
	Action    string          `json:"action"`
	Config    json.RawMessage `json:"config"`
	Enabled   bool            `json:"enabled"`
	CreatedAt string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:        b.ID,
		Gesture:   b.Gesture,
		Hook:      b.HookName,
		Action:    b.Action,
		Config:    config,
		Enabled:   b.Enabled,
		CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// checkHook writes a 400 and returns false when name is not a discovered hook.
func (h *BindingHandler) checkHook(w http.ResponseWriter, name string) bool {
	if h.hooks == nil {
		return true
	}
	if _, err := h.hooks.Get(name); err != nil {
		if errors.Is(err, hook.ErrHookNotFound) {
			writeError(w, http.StatusBadRequest, "Hook not found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify hook")
		return false
	}
	return true
}

func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	binding, err := h.store.Bindings().GetByID(ps.ByName("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(binding))
}

func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Gesture == "" {
		writeError(w, http.StatusBadRequest, "gesture is required")
		return
	}
	if req.Hook == "" {
		writeError(w, http.StatusBadRequest, "hook is required")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}
	if !h.checkHook(w, req.Hook) {
		return
	}

	existing, err := h.store.Bindings().GetByGesture(req.Gesture)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing binding")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Gesture is already bound")
		return
	}

	config := req.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	binding := &store.Binding{
		ID:       uuid.New().String(),
		Gesture:  req.Gesture,
		HookName: req.Hook,
		Action:   req.Action,
		Config:   config,
		Enabled:  true,
	}
	if err := h.store.Bindings().Create(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}

	writeJSON(w, http.StatusCreated, toBindingResponse(binding))
}

func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	binding, err := h.store.Bindings().GetByID(ps.ByName("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Gesture != "" && req.Gesture != binding.Gesture {
		existing, err := h.store.Bindings().GetByGesture(req.Gesture)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to check existing binding")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Gesture is already bound")
			return
		}
		binding.Gesture = req.Gesture
	}
	if req.Hook != "" {
		if !h.checkHook(w, req.Hook) {
			return
		}
		binding.HookName = req.Hook
	}
	if req.Action != "" {
		binding.Action = req.Action
	}
	if req.Config != nil {
		binding.Config = req.Config
	}
	if req.Enabled != nil {
		binding.Enabled = *req.Enabled
	}

	if err := h.store.Bindings().Update(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(binding))
}

func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.store.Bindings().Delete(ps.ByName("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
