package analysis

import "math"

const (
	// Sustained |grade| above this is technical terrain
	TechnicalGradePct = 15.0
	// Oscillating grades above this magnitude qualify as chaos
	ChaosGradePct = 12.0
	// Oscillations only count as chaos over short distances
	ChaosWindowKm = 1.0
)

// ElevationStats holds cumulative gain and loss over a profile, rounded to
// whole meters.
type ElevationStats struct {
	ElevationGainM float64 `json:"elevationGainM"`
	ElevationLossM float64 `json:"elevationLossM"`
}

// CalculateElevationStats accumulates positive deltas into gain and the
// absolute value of negative deltas into loss over consecutive sample pairs.
// Rounding happens once at the end, not per step, so rounding error does not
// compound. A profile with fewer than 2 points yields zeros.
func CalculateElevationStats(profile ElevationProfile) ElevationStats {
	if len(profile) < 2 {
		return ElevationStats{}
	}

	var gain, loss float64
	for i := 1; i < len(profile); i++ {
		delta := profile[i].ElevationM - profile[i-1].ElevationM
		if delta > 0 {
			gain += delta
		} else {
			loss += -delta
		}
	}

	return ElevationStats{
		ElevationGainM: math.Round(gain),
		ElevationLossM: math.Round(loss),
	}
}

// InterpolateElevation returns the elevation at an arbitrary distance via
// linear interpolation between the two bracketing samples. Outside the
// profile's range it clamps to the first/last sample's elevation. A
// single-point profile returns that point's elevation.
func InterpolateElevation(profile ElevationProfile, distanceKm float64) float64 {
	if len(profile) == 0 {
		return 0
	}
	if len(profile) == 1 {
		return profile[0].ElevationM
	}

	if distanceKm <= profile[0].DistanceKm {
		return profile[0].ElevationM
	}
	last := profile[len(profile)-1]
	if distanceKm >= last.DistanceKm {
		return last.ElevationM
	}

	for i := 1; i < len(profile); i++ {
		if profile[i].DistanceKm < distanceKm {
			continue
		}
		prev, next := profile[i-1], profile[i]
		span := next.DistanceKm - prev.DistanceKm
		if span <= 0 {
			return prev.ElevationM
		}
		t := (distanceKm - prev.DistanceKm) / span
		return prev.ElevationM + t*(next.ElevationM-prev.ElevationM)
	}

	return last.ElevationM
}

// SegmentProfile partitions the profile into consecutive segments, one per
// sample pair, each carrying its grade and technicity tier. Chaos is reserved
// for segments whose grade sign oscillates sharply over short distances,
// technical for sustained steep single-direction grades, rolling otherwise.
func SegmentProfile(profile ElevationProfile) []Segment {
	if len(profile) < 2 {
		return nil
	}

	grades := make([]float64, 0, len(profile)-1)
	segments := make([]Segment, 0, len(profile)-1)

	for i := 1; i < len(profile); i++ {
		prev, next := profile[i-1], profile[i]
		distKm := next.DistanceKm - prev.DistanceKm
		grade := 0.0
		if distKm > 0 {
			grade = (next.ElevationM - prev.ElevationM) / (distKm * 1000) * 100
		}
		grades = append(grades, grade)
		segments = append(segments, Segment{
			StartKm:    prev.DistanceKm,
			EndKm:      next.DistanceKm,
			StartElevM: prev.ElevationM,
			EndElevM:   next.ElevationM,
			GradePct:   grade,
		})
	}

	for i := range segments {
		segments[i].Technicity = classifySegment(segments, grades, i)
	}

	return segments
}

// classifySegment assigns a technicity tier to segment i given its neighbors.
func classifySegment(segments []Segment, grades []float64, i int) Technicity {
	g := grades[i]

	if isChaotic(segments, grades, i) {
		return TechnicityChaos
	}
	if math.Abs(g) > TechnicalGradePct {
		return TechnicityTechnical
	}
	return TechnicityRolling
}

// isChaotic reports whether segment i alternates steeply with an adjacent
// segment: both steep, opposite signs, both short.
func isChaotic(segments []Segment, grades []float64, i int) bool {
	g := grades[i]
	if math.Abs(g) < ChaosGradePct || segments[i].DistanceKm() > ChaosWindowKm {
		return false
	}
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(grades) {
			continue
		}
		n := grades[j]
		if math.Abs(n) >= ChaosGradePct && g*n < 0 && segments[j].DistanceKm() <= ChaosWindowKm {
			return true
		}
	}
	return false
}
