package strava

import "time"

// Activity is the slice of a Strava activity the metrics computation needs.
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
}

// IsRun reports whether the activity counts toward trail preparation.
func (a Activity) IsRun() bool {
	switch a.SportType {
	case "Run", "TrailRun":
		return true
	}
	return a.Type == "Run"
}

// DistanceKm returns the activity distance in kilometers.
func (a Activity) DistanceKm() float64 {
	return a.Distance / 1000
}
