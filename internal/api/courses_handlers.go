package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trailprep/internal/gpx"
	"trailprep/internal/store"
)

type courseRequest struct {
	Name           string          `json:"name"`
	DistanceKm     float64         `json:"distanceKm"`
	ElevationGainM float64         `json:"elevationGainM"`
	ElevationLossM float64         `json:"elevationLossM"`
	Profile        json.RawMessage `json:"profile,omitempty"`
	Checkpoints    json.RawMessage `json:"checkpoints,omitempty"`
}

func (r courseRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.DistanceKm <= 0 {
		return errors.New("distanceKm must be positive")
	}
	// A profile can arrive as an array, a JSON string or double-encoded;
	// normalize once at the boundary so a broken one never reaches storage.
	if len(r.Profile) > 0 {
		if result := gpx.NormalizeProfile(r.Profile); !result.OK {
			return errors.New("invalid profile: " + result.Reason)
		}
	}
	return nil
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := s.store.GetEvent(eventID); err != nil {
		respondStoreError(w, err)
		return
	}

	courses, err := s.store.ListCoursesByEvent(eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, courses)
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	course, err := s.store.CreateCourse(&store.Course{
		EventID:        chi.URLParam(r, "id"),
		Name:           req.Name,
		DistanceKm:     req.DistanceKm,
		ElevationGainM: req.ElevationGainM,
		ElevationLossM: req.ElevationLossM,
		Profile:        req.Profile,
		Checkpoints:    req.Checkpoints,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, course)
}

// handleImportGPX creates a course under an event from a raw GPX upload.
// The track is reduced to an elevation profile and route stats; the original
// file is not retained.
func (s *Server) handleImportGPX(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	route, err := gpx.Parse(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := route.Name
	if name == "" {
		name = "Parcours importé"
	}

	profile, err := json.Marshal(route.Profile)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "encoding profile: "+err.Error())
		return
	}

	course, err := s.store.CreateCourse(&store.Course{
		EventID:        chi.URLParam(r, "id"),
		Name:           name,
		DistanceKm:     route.Stats.DistanceKm,
		ElevationGainM: route.Stats.ElevationGainM,
		ElevationLossM: route.Stats.ElevationLossM,
		Profile:        profile,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusCreated, course)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.store.GetCourse(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, course)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.GetCourse(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	existing.Name = req.Name
	existing.DistanceKm = req.DistanceKm
	existing.ElevationGainM = req.ElevationGainM
	existing.ElevationLossM = req.ElevationLossM
	existing.Profile = req.Profile
	existing.Checkpoints = req.Checkpoints

	course, err := s.store.UpdateCourse(existing)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, course)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCourse(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")})
}
