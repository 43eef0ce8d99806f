package api

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"trailprep/internal/auth"
	"trailprep/internal/logging"
	"trailprep/internal/store"
	"trailprep/internal/strava"
)

const metricsCacheKey = "strava:metrics"

// handleStravaConnect issues a state and hands back the Strava consent URL.
func (s *Server) handleStravaConnect(w http.ResponseWriter, r *http.Request) {
	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" {
		respondError(w, http.StatusServiceUnavailable, "Strava credentials not configured")
		return
	}

	state, err := s.states.Issue()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "generating state: "+err.Error())
		return
	}

	cfg := auth.NewOAuthConfig(*s.oauth)
	respondData(w, http.StatusOK, map[string]string{
		"authUrl": cfg.AuthCodeURL(state, oauth2.AccessTypeOffline),
	})
}

// handleStravaCallback exchanges the authorization code and persists tokens.
func (s *Server) handleStravaCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errMsg := q.Get("error"); errMsg != "" {
		respondError(w, http.StatusBadRequest, "authorization failed: "+errMsg)
		return
	}
	if !s.states.Consume(q.Get("state")) {
		respondError(w, http.StatusBadRequest, "state mismatch or expired")
		return
	}
	code := q.Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "no authorization code")
		return
	}

	cfg := auth.NewOAuthConfig(*s.oauth)
	token, err := cfg.Exchange(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusBadGateway, "exchanging code: "+err.Error())
		return
	}

	if err := s.store.SaveAuth(&store.Auth{
		AthleteID:    auth.ExtractAthleteID(token),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "persisting tokens: "+err.Error())
		return
	}

	s.cache.Delete(metricsCacheKey)
	respondData(w, http.StatusOK, map[string]string{"connected": "strava"})
}

// handleStravaMetrics computes the training signal from the last 28 days of
// activities, cached so repeated dashboard loads don't burn the rate limit.
func (s *Server) handleStravaMetrics(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cache.Get(metricsCacheKey); ok {
		respondData(w, http.StatusOK, cached)
		return
	}

	stored, err := s.store.GetAuth()
	if err != nil {
		if errors.Is(err, store.ErrNoAuth) {
			respondError(w, http.StatusNotFound, "no Strava account connected")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cfg := auth.NewOAuthConfig(*s.oauth)
	tokenSource := auth.NewTokenSource(cfg, &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.ExpiresAt,
	}, func(t *oauth2.Token) error {
		return s.store.UpdateTokens(t.AccessToken, t.RefreshToken, t.Expiry)
	})

	client := strava.NewClient(tokenSource)
	now := time.Now()
	activities, err := client.GetAllActivities(r.Context(), now.AddDate(0, 0, -strava.MetricsWindowDays))
	if err != nil {
		logging.Error("fetching activities", "error", err)
		respondError(w, http.StatusBadGateway, "fetching activities: "+err.Error())
		return
	}

	metrics := strava.ComputeRunnerMetrics(activities, now)
	s.cache.Set(metricsCacheKey, metrics, s.metricsTTL)
	respondData(w, http.StatusOK, metrics)
}
