package analysis

import (
	"fmt"
	"math"
)

// Capacity factor bounds: a runner is never treated as less than half or more
// than one-and-a-half times matched to a course's climbing demand.
const (
	MinCapacityFactor = 0.5
	MaxCapacityFactor = 1.5
)

// ZoneColors maps each difficulty tier to its display color.
var ZoneColors = map[Difficulty]string{
	DifficultyEasy:     "#4caf50",
	DifficultyModerate: "#ff9800",
	DifficultyHard:     "#f44336",
	DifficultyCritical: "#7b1fa2",
}

// CapacityFactor is the ratio of a runner's trained climbing rate (D+ per km,
// preferring the best long run, falling back to the weekly signal) to the
// course's overall climbing demand, clamped to [0.5, 1.5]. Returns 1.0 when
// no rate can be derived.
func CapacityFactor(metrics *RunnerMetrics, courseDistanceKm, courseGainM float64) float64 {
	if metrics == nil || courseDistanceKm <= 0 {
		return 1.0
	}

	runnerRate := runnerClimbRate(metrics)
	if runnerRate <= 0 {
		return 1.0
	}

	courseRate := courseGainM / courseDistanceKm
	if courseRate <= 0 {
		return MaxCapacityFactor
	}

	factor := runnerRate / courseRate
	if factor < MinCapacityFactor {
		return MinCapacityFactor
	}
	if factor > MaxCapacityFactor {
		return MaxCapacityFactor
	}
	return factor
}

// runnerClimbRate derives the runner's D+ per km, preferring the best long
// run over the weekly averages.
func runnerClimbRate(m *RunnerMetrics) float64 {
	if m.LongRunDistanceKm > 0 && m.LongRunDPlus > 0 {
		return m.LongRunDPlus / m.LongRunDistanceKm
	}
	if m.KmPerWeek > 0 && m.DPlusPerWeek > 0 {
		return m.DPlusPerWeek / m.KmPerWeek
	}
	return 0
}

// AnalyzeProfileZones classifies the profile into contiguous difficulty zones.
// Without runner metrics, difficulty is technicity alone (chaos→critical,
// technical→hard, rolling→easy). With metrics, each segment is weighed
// against the runner's capacity factor and climbing rate. Adjacent segments
// sharing a difficulty are merged into one zone.
func AnalyzeProfileZones(profile ElevationProfile, metrics *RunnerMetrics, courseDistanceKm, courseGainM float64) []ProfileZone {
	segments := SegmentProfile(profile)
	if len(segments) == 0 {
		return nil
	}

	capacity := CapacityFactor(metrics, courseDistanceKm, courseGainM)
	runnerRate := 0.0
	if metrics != nil {
		runnerRate = runnerClimbRate(metrics)
	}

	var zones []ProfileZone
	for _, seg := range segments {
		difficulty := segmentDifficulty(seg, metrics, capacity, runnerRate)

		gain, loss := 0.0, 0.0
		delta := seg.EndElevM - seg.StartElevM
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if n := len(zones); n > 0 && zones[n-1].Difficulty == difficulty {
			zone := &zones[n-1]
			zone.EndDistanceKm = seg.EndKm
			zone.ElevationGainM += gain
			zone.ElevationLossM += loss
			continue
		}

		zones = append(zones, ProfileZone{
			StartDistanceKm: seg.StartKm,
			EndDistanceKm:   seg.EndKm,
			Difficulty:      difficulty,
			ElevationGainM:  gain,
			ElevationLossM:  loss,
			Color:           ZoneColors[difficulty],
		})
	}

	for i := range zones {
		zone := &zones[i]
		distKm := zone.EndDistanceKm - zone.StartDistanceKm
		if distKm > 0 {
			zone.AverageGradePct = (zone.ElevationGainM - zone.ElevationLossM) / (distKm * 1000) * 100
		}
		zone.Description = describeZone(*zone)
	}

	return zones
}

// segmentDifficulty maps one segment's technicity to a difficulty tier.
// Chaos segments are always critical: their technical risk does not shrink
// with fitness.
func segmentDifficulty(seg Segment, metrics *RunnerMetrics, capacity, runnerRate float64) Difficulty {
	if metrics == nil {
		switch seg.Technicity {
		case TechnicityChaos:
			return DifficultyCritical
		case TechnicityTechnical:
			return DifficultyHard
		default:
			return DifficultyEasy
		}
	}

	switch seg.Technicity {
	case TechnicityChaos:
		return DifficultyCritical
	case TechnicityTechnical:
		switch {
		case capacity < 0.7:
			return DifficultyCritical
		case capacity < 0.9:
			return DifficultyHard
		default:
			return DifficultyModerate
		}
	}

	// Rolling terrain: compare the segment's climb density against the
	// runner's own climbing rate.
	density := 0.0
	if distKm := seg.DistanceKm(); distKm > 0 {
		if delta := seg.EndElevM - seg.StartElevM; delta > 0 {
			density = delta / distKm
		}
	}

	switch {
	case seg.GradePct > 20 || (runnerRate > 0 && density > 1.5*runnerRate):
		if capacity < 0.8 {
			return DifficultyHard
		}
		return DifficultyModerate
	case seg.GradePct > 10 || (runnerRate > 0 && density > 1.2*runnerRate):
		return DifficultyModerate
	default:
		return DifficultyEasy
	}
}

// describeZone builds the human-readable label for a zone from its difficulty,
// direction and rounded grade.
func describeZone(zone ProfileZone) string {
	labels := map[Difficulty]string{
		DifficultyEasy:     "facile",
		DifficultyModerate: "modérée",
		DifficultyHard:     "difficile",
		DifficultyCritical: "critique",
	}
	label := labels[zone.Difficulty]
	grade := int(math.Round(math.Abs(zone.AverageGradePct)))

	net := zone.ElevationGainM - zone.ElevationLossM
	switch {
	case net > 0:
		return fmt.Sprintf("Montée %s (%d%%)", label, grade)
	case net < 0:
		return fmt.Sprintf("Descente %s (%d%%)", label, grade)
	default:
		return fmt.Sprintf("Section %s (%d%%)", label, grade)
	}
}
