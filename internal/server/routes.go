package server

import (
	"encoding/json"
	"net/http"

	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/geometry"
	"github.com/zsiec/viewport/pkg/version"
)

// orientations maps the wire names accepted by the orientation endpoint
// to their values. Names match geometry.Orientation.String.
var orientations = map[string]geometry.Orientation{
	"0":       geometry.Orientation0,
	"90":      geometry.Orientation90,
	"180":     geometry.Orientation180,
	"270":     geometry.Orientation270,
	"flip0":   geometry.OrientationFlip0,
	"flip90":  geometry.OrientationFlip90,
	"flip180": geometry.OrientationFlip180,
	"flip270": geometry.OrientationFlip270,
}

// controlResponse acknowledges a control command. Commands are applied
// asynchronously by the presentation loop; poll /api/v1/session for the
// resulting state.
type controlResponse struct {
	Accepted bool   `json:"accepted"`
	Command  string `json:"command"`
}

// handleVersion handles the /version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.GetInfo()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if err := json.NewEncoder(w).Encode(versionInfo); err != nil {
		s.logger.WithError(err).Error("Failed to encode version response")
		s.errorHandler.HandleError(w, r, err)
	}
}

// handleSession serves the live session description.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if err := s.writeJSON(w, http.StatusOK, s.session.Info()); err != nil {
		s.logger.WithError(err).Error("Failed to encode session response")
	}
}

// handleSessions lists every session the registry knows about, this one
// included.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.registry.List(r.Context())
	if err != nil {
		s.writeError(w, r, errors.WrapDegraded(err, "registry", "cannot list sessions"))
		return
	}

	response := struct {
		Sessions interface{} `json:"sessions"`
		Count    int         `json:"count"`
	}{
		Sessions: sessions,
		Count:    len(sessions),
	}
	if err := s.writeJSON(w, http.StatusOK, response); err != nil {
		s.logger.WithError(err).Error("Failed to encode sessions response")
	}
}

// handlePause sets or clears the pause state.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, errors.NewValidationError("Invalid pause request body"))
		return
	}

	s.session.Controller().SetPaused(body.Paused)
	s.accept(w, "pause")
}

// handleFullscreen toggles fullscreen.
func (s *Server) handleFullscreen(w http.ResponseWriter, r *http.Request) {
	s.session.Controller().SwitchFullscreen()
	s.accept(w, "fullscreen")
}

// handleResize resizes the window to fit content or to the exact
// content pixel size.
func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, errors.NewValidationError("Invalid resize request body"))
		return
	}

	switch body.Mode {
	case "fit":
		s.session.Controller().ResizeToFit()
	case "pixel_perfect":
		s.session.Controller().ResizeToPixelPerfect()
	default:
		s.writeError(w, r, errors.NewValidationError(`Resize mode must be "fit" or "pixel_perfect"`))
		return
	}
	s.accept(w, "resize")
}

// handleOrientation sets the content orientation.
func (s *Server) handleOrientation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Orientation string `json:"orientation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, errors.NewValidationError("Invalid orientation request body"))
		return
	}

	o, ok := orientations[body.Orientation]
	if !ok {
		s.writeError(w, r, errors.NewValidationError("Unknown orientation "+body.Orientation))
		return
	}

	s.session.Controller().SetOrientation(o)
	s.accept(w, "orientation")
}

// accept acknowledges an asynchronously applied control command.
func (s *Server) accept(w http.ResponseWriter, command string) {
	if err := s.writeJSON(w, http.StatusAccepted, controlResponse{Accepted: true, Command: command}); err != nil {
		s.logger.WithError(err).Error("Failed to encode control response")
	}
}

// writeJSON is a helper to write JSON responses
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// writeError is a helper to write error responses
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler.HandleError(w, r, err)
}
