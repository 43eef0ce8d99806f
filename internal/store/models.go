package store

import (
	"encoding/json"
	"time"
)

// Auth holds the stored Strava tokens (singleton row).
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Event is a race event the user is preparing for.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Course is a route attached to an event. Profile and Checkpoints are stored
// as raw JSON; the gpx package normalizes them before the analysis core sees
// them.
type Course struct {
	ID             string          `json:"id"`
	EventID        string          `json:"eventId"`
	Name           string          `json:"name"`
	DistanceKm     float64         `json:"distanceKm"`
	ElevationGainM float64         `json:"elevationGainM"`
	ElevationLossM float64         `json:"elevationLossM"`
	Profile        json.RawMessage `json:"profile,omitempty"`
	Checkpoints    json.RawMessage `json:"checkpoints,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
