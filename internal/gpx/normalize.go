package gpx

import (
	"encoding/json"
	"fmt"

	"trailprep/internal/analysis"
)

// ProfileResult is the tagged outcome of normalizing a stored profile. The
// core only ever sees the Profile of an OK result.
type ProfileResult struct {
	OK      bool
	Profile analysis.ElevationProfile
	Reason  string
}

// NormalizeProfile decodes a course profile that may arrive as a native
// array, a JSON string, or a double-encoded JSON string, depending on how
// the storage layer round-tripped it. All shape sniffing happens here, once,
// before any core function sees the data.
func NormalizeProfile(raw json.RawMessage) ProfileResult {
	if len(raw) == 0 {
		return ProfileResult{Reason: "empty profile"}
	}

	data := []byte(raw)

	// Unwrap string encodings, at most twice (stored JSON re-encoded as a
	// JSON string on the way out of the database).
	for attempt := 0; attempt < 2; attempt++ {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			break
		}
		data = []byte(s)
	}

	var profile analysis.ElevationProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return ProfileResult{Reason: fmt.Sprintf("profile is not a point array: %v", err)}
	}
	if len(profile) < 2 {
		return ProfileResult{Reason: fmt.Sprintf("profile has %d points, need at least 2", len(profile))}
	}

	for i := 1; i < len(profile); i++ {
		if profile[i].DistanceKm <= profile[i-1].DistanceKm {
			return ProfileResult{Reason: fmt.Sprintf("distances not strictly increasing at index %d", i)}
		}
	}

	return ProfileResult{OK: true, Profile: profile}
}
