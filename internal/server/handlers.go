package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/mapty/internal/app"
	"github.com/meltforce/mapty/internal/mapview"
	"github.com/meltforce/mapty/internal/models"
	"github.com/meltforce/mapty/internal/render"
)

type stateResponse struct {
	app.State
	Map mapview.Snapshot `json:"map"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{State: s.app.State(), Map: s.view.Snapshot()})
}

func (s *Server) handleMapClick(w http.ResponseWriter, r *http.Request) {
	var coords models.Coords
	if err := json.NewDecoder(r.Body).Decode(&coords); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.app.Click(coords); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.State())
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	var kind models.Kind
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, ok := models.ParseKind(k)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown kind " + k})
			return
		}
		kind = parsed
	}
	writeJSON(w, http.StatusOK, render.Items(models.FilterKind(s.app.Workouts(), kind)))
}

// createRequest is the form payload. With coords set the workout is placed
// there; otherwise it goes to the last clicked map location.
type createRequest struct {
	app.FormInput
	Coords *models.Coords `json:"coords,omitempty"`
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	var (
		workout models.Workout
		err     error
	)
	if req.Coords != nil {
		workout, err = s.app.Record(r.Context(), *req.Coords, req.FormInput)
	} else {
		workout, err = s.app.Submit(r.Context(), req.FormInput)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, render.NewItem(workout))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Reset(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := s.app.Workout(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.NewItem(workout))
}

func (s *Server) handleFocusWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := s.app.Focus(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.NewItem(workout))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Summary())
}

func (s *Server) handleWorkoutsFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Fragment(w, render.Items(s.app.Workouts())); err != nil {
		s.log.Error("rendering workout list", "error", err)
	}
}

// writeError maps controller errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.UserMessage(), "detail": verr.Error()})
	case errors.Is(err, app.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
	case errors.Is(err, app.ErrNoLocation), errors.Is(err, app.ErrMapUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
