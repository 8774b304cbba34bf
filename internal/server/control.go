package server

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/talkheal/gesturemode/internal/capture"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

// handleStart activates gesture mode. An unavailable camera is reported as
// 503 with the status body so the UI can show the warning.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.config.Controller.Start(r.Context()); err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			s.log.Warnf("Start failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, s.config.Controller.Status())
			return
		}
		s.log.Errorf("Start failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.config.Controller.Stop(); err != nil {
		s.log.Warnf("Stop: %v", err)
	}
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}
