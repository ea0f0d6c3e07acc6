package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/holoroom/internal/app"
	"github.com/ayusman/holoroom/internal/log"
	"github.com/ayusman/holoroom/internal/store"
)

// SettingMode is the settings key holding the last selected mode.
const SettingMode = "mode"

// Controller is the part of the display loop the API can steer.
type Controller interface {
	Mode() app.Mode
	SetMode(app.Mode)
	IsPaused() bool
	SetPaused(bool)
}

// ModeHandler reads and switches the render mode and pause state.
type ModeHandler struct {
	ctrl  Controller
	store *store.Store
}

// NewModeHandler creates a ModeHandler. When s is non-nil the chosen mode
// is remembered in the settings table.
func NewModeHandler(ctrl Controller, s *store.Store) *ModeHandler {
	return &ModeHandler{ctrl: ctrl, store: s}
}

type modeResponse struct {
	Mode   app.Mode `json:"mode"`
	Paused bool     `json:"paused"`
}

type updateModeRequest struct {
	Mode   string `json:"mode"`
	Paused *bool  `json:"paused"`
}

// ServeHTTP handles GET and PUT /api/mode.
func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ModeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Mode != "" {
		mode, err := app.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Mode must be overlay or room")
			return
		}
		h.ctrl.SetMode(mode)
		if h.store != nil {
			if err := h.store.Settings().Set(SettingMode, string(mode)); err != nil {
				log.Warn("failed to save mode", "error", err)
			}
		}
	}
	if req.Paused != nil {
		h.ctrl.SetPaused(*req.Paused)
	}

	h.respond(w)
}

func (h *ModeHandler) respond(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, modeResponse{Mode: h.ctrl.Mode(), Paused: h.ctrl.IsPaused()})
}
