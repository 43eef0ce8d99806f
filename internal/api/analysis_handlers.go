package api

import (
	"encoding/json"
	"net/http"

	"trailprep/internal/analysis"
	"trailprep/internal/gpx"
)

type estimateRequest struct {
	DistanceKm       float64                    `json:"distanceKm"`
	ElevationGainM   float64                    `json:"elevationGainM"`
	BasePaceMinPerKm float64                    `json:"basePaceMinPerKm,omitempty"`
	Params           *analysis.SimulationParams `json:"params,omitempty"`
	Metrics          *analysis.RunnerMetrics    `json:"metrics,omitempty"`
}

func (r estimateRequest) input() analysis.EstimateInput {
	params := analysis.DefaultSimulationParams(r.DistanceKm)
	if r.Params != nil {
		params = *r.Params
	}
	return analysis.EstimateInput{
		DistanceKm:       r.DistanceKm,
		ElevationGainM:   r.ElevationGainM,
		BasePaceMinPerKm: r.BasePaceMinPerKm,
		Params:           params,
	}
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	estimate := analysis.EstimateTrailTime(req.input(), req.Metrics)
	respondData(w, http.StatusOK, estimate)
}

type zonesRequest struct {
	Profile        json.RawMessage         `json:"profile"`
	Metrics        *analysis.RunnerMetrics `json:"metrics,omitempty"`
	DistanceKm     float64                 `json:"distanceKm"`
	ElevationGainM float64                 `json:"elevationGainM"`
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	var req zonesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := gpx.NormalizeProfile(req.Profile)
	if !result.OK {
		respondError(w, http.StatusBadRequest, "invalid profile: "+result.Reason)
		return
	}

	zones := analysis.AnalyzeProfileZones(result.Profile, req.Metrics, req.DistanceKm, req.ElevationGainM)
	respondData(w, http.StatusOK, zones)
}

type readinessRequest struct {
	Metrics       *analysis.RunnerMetrics `json:"metrics,omitempty"`
	Course        analysis.Course         `json:"course"`
	Segments      []analysis.Segment      `json:"segments,omitempty"`
	Profile       json.RawMessage         `json:"profile,omitempty"`
	RaceReference *analysis.RaceReference `json:"raceReference,omitempty"`
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	var req readinessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Course.DistanceKm <= 0 {
		respondError(w, http.StatusBadRequest, "course.distanceKm must be positive")
		return
	}

	segments := req.Segments
	if len(segments) == 0 && len(req.Profile) > 0 {
		if result := gpx.NormalizeProfile(req.Profile); result.OK {
			segments = analysis.SegmentProfile(result.Profile)
		}
	}

	result := analysis.AnalyzeCourseReadiness(req.Metrics, req.Course, segments, req.RaceReference)
	respondData(w, http.StatusOK, result)
}

type barriersRequest struct {
	Checkpoints    []analysis.Checkpoint      `json:"checkpoints"`
	DistanceKm     float64                    `json:"distanceKm"`
	ElevationGainM float64                    `json:"elevationGainM"`
	Params         *analysis.SimulationParams `json:"params,omitempty"`
	Metrics        *analysis.RunnerMetrics    `json:"metrics,omitempty"`
}

func (s *Server) handleBarriers(w http.ResponseWriter, r *http.Request) {
	var req barriersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DistanceKm <= 0 {
		respondError(w, http.StatusBadRequest, "distanceKm must be positive")
		return
	}

	params := analysis.DefaultSimulationParams(req.DistanceKm)
	if req.Params != nil {
		params = *req.Params
	}
	estimate := analysis.EstimateTrailTime(analysis.EstimateInput{
		DistanceKm:     req.DistanceKm,
		ElevationGainM: req.ElevationGainM,
		Params:         params,
	}, req.Metrics)

	barriers := analysis.ProjectBarriers(req.Checkpoints, estimate, req.DistanceKm)
	respondData(w, http.StatusOK, barriers)
}
