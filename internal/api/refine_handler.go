package api

import (
	"errors"
	"net/http"

	"trailprep/internal/logging"
	"trailprep/internal/refine"
)

// handleRefine forwards the current estimate upstream for a second opinion.
// The reply is advisory: every failure here leaves the caller's own
// estimate valid, so errors map to distinct statuses instead of retries.
func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refine.Request
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestion, err := s.refiner.Refine(r.Context(), req)
	switch {
	case err == nil:
		respondData(w, http.StatusOK, suggestion)
	case errors.Is(err, refine.ErrNoCredential):
		respondError(w, http.StatusServiceUnavailable, "refinement upstream not configured")
	case errors.Is(err, refine.ErrUnparsable):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logging.Error("refine upstream failure", "error", err)
		respondError(w, http.StatusInternalServerError, "refinement upstream failure")
	}
}
