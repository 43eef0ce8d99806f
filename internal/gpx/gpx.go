// Package gpx turns GPX imports into elevation profiles the analysis core
// can consume.
package gpx

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"trailprep/internal/analysis"
)

// Route is the result of a GPX import.
type Route struct {
	Name    string
	Profile analysis.ElevationProfile
	Stats   analysis.RouteStats
}

// ParseFile reads and processes a GPX file from disk.
func ParseFile(path string) (*Route, error) {
	parsed, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing gpx file: %w", err)
	}
	return buildRoute(parsed)
}

// Parse processes raw GPX bytes.
func Parse(data []byte) (*Route, error) {
	parsed, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing gpx: %w", err)
	}
	return buildRoute(parsed)
}

// buildRoute walks every track segment (falling back to routes when a file
// has no tracks) and accumulates distance along the way.
func buildRoute(parsed *gpx.GPX) (*Route, error) {
	var profile analysis.ElevationProfile
	var totalMeters float64
	var previous *gpx.GPXPoint

	appendPoint := func(p *gpx.GPXPoint) {
		if previous != nil {
			totalMeters += previous.Distance3D(p)
		}
		profile = append(profile, analysis.ProfilePoint{
			DistanceKm: totalMeters / 1000,
			ElevationM: p.Elevation.Value(),
		})
		clone := *p
		previous = &clone
	}

	for _, track := range parsed.Tracks {
		for _, segment := range track.Segments {
			for i := range segment.Points {
				appendPoint(&segment.Points[i])
			}
		}
	}
	if len(profile) == 0 {
		for _, route := range parsed.Routes {
			for i := range route.Points {
				appendPoint(&route.Points[i])
			}
		}
	}

	if len(profile) < 2 {
		return nil, fmt.Errorf("gpx contains %d usable points, need at least 2", len(profile))
	}

	// Distances must be strictly increasing for the core; duplicate points a
	// GPS logger recorded while standing still are dropped.
	profile = dedupeDistances(profile)

	stats := analysis.CalculateElevationStats(profile)

	name := parsed.Name
	if name == "" && len(parsed.Tracks) > 0 {
		name = parsed.Tracks[0].Name
	}

	return &Route{
		Name:    name,
		Profile: profile,
		Stats: analysis.RouteStats{
			DistanceKm:     profile[len(profile)-1].DistanceKm,
			ElevationGainM: stats.ElevationGainM,
			ElevationLossM: stats.ElevationLossM,
		},
	}, nil
}

func dedupeDistances(profile analysis.ElevationProfile) analysis.ElevationProfile {
	out := profile[:1]
	for _, p := range profile[1:] {
		if p.DistanceKm > out[len(out)-1].DistanceKm {
			out = append(out, p)
		}
	}
	return out
}
