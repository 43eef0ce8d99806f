package analysis

import (
	"fmt"
	"math"
)

// TechnicalIndex describes how confidently the runner handles technical
// descents.
type TechnicalIndex string

const (
	TechnicalGood     TechnicalIndex = "good"
	TechnicalAverage  TechnicalIndex = "average"
	TechnicalCautious TechnicalIndex = "cautious"
)

// EnduranceIndex controls how much the pace degrades over the back half of
// the race.
type EnduranceIndex string

const (
	EnduranceElite        EnduranceIndex = "elite"
	EnduranceExperienced  EnduranceIndex = "experienced"
	EnduranceIntermediate EnduranceIndex = "intermediate"
	EnduranceBeginner     EnduranceIndex = "beginner"
)

// SimulationParams are the user-tunable race-day assumptions. They are
// ephemeral, adjusted per view session, never persisted.
type SimulationParams struct {
	FitnessLevel         float64        `json:"fitnessLevel"` // percent, 50–120, 100 nominal
	RefuelStops          int            `json:"refuelStops"`
	RefuelTimePerStopMin float64        `json:"refuelTimePerStop"`
	TechnicalIndex       TechnicalIndex `json:"technicalIndex"`
	EnduranceIndex       EnduranceIndex `json:"enduranceIndex"`
	TemperatureC         *float64       `json:"temperature,omitempty"`
	BagWeightKg          *float64       `json:"bagWeight,omitempty"`
}

// EstimateInput bundles route demands with simulation parameters. A zero
// BasePaceMinPerKm means the pace is derived from metrics or defaults.
type EstimateInput struct {
	DistanceKm       float64          `json:"distanceKm"`
	ElevationGainM   float64          `json:"elevationGainM"`
	BasePaceMinPerKm float64          `json:"basePaceMinPerKm,omitempty"`
	Params           SimulationParams `json:"params"`
}

// TimeEstimate is the model's projected finish time. The formatted strings
// are a pure function of the numeric fields.
type TimeEstimate struct {
	BasePaceMinPerKm  float64 `json:"basePace"`
	FinalPaceMinPerKm float64 `json:"finalPace"`
	TotalMinutes      float64 `json:"totalMinutes"`
	TotalHours        float64 `json:"totalHours"`
	Formatted         string  `json:"formatted"`
	RangeFormatted    string  `json:"rangeFormatted"`
}

const (
	// Conservative flat pace for an ultra-distance trail effort when no
	// training signal is available (min/km)
	DefaultBasePaceMinPerKm = 8.0
	// Additive climbing cost, minutes per 100 m of elevation gain
	ClimbMinutesPer100m = 6.0
	// Flat minutes per refuel stop when the caller gives none
	DefaultRefuelTimePerStopMin = 10.0
	// Fitness level input bounds (percent)
	MinFitnessLevel = 50.0
	MaxFitnessLevel = 120.0
	// Uncertainty band around the central estimate
	RangeLowFactor  = 0.90
	RangeHighFactor = 1.15
)

// technicalFactors are small pace multipliers per descending style.
var technicalFactors = map[TechnicalIndex]float64{
	TechnicalGood:     0.95,
	TechnicalAverage:  1.0,
	TechnicalCautious: 1.10,
}

// enduranceDecay is the back-half pace degradation per endurance tier.
var enduranceDecay = map[EnduranceIndex]float64{
	EnduranceElite:        0,
	EnduranceExperienced:  0.05,
	EnduranceIntermediate: 0.10,
	EnduranceBeginner:     0.20,
}

// DefaultSimulationParams returns the representative race-day assumptions
// used when the caller supplies none: nominal fitness, average indexes,
// 15 °C, a 2 kg pack, and one refuel stop per 20 km.
func DefaultSimulationParams(distanceKm float64) SimulationParams {
	temp := 15.0
	bag := 2.0
	stops := 0
	if distanceKm > 0 {
		stops = int(distanceKm / 20)
	}
	return SimulationParams{
		FitnessLevel:         100,
		RefuelStops:          stops,
		RefuelTimePerStopMin: DefaultRefuelTimePerStopMin,
		TechnicalIndex:       TechnicalAverage,
		EnduranceIndex:       EnduranceIntermediate,
		TemperatureC:         &temp,
		BagWeightKg:          &bag,
	}
}

// DeriveBasePace estimates a flat base pace (min/km) from the runner's
// training signal. Higher weekly volume earns a faster assumed pace; poor
// regularity costs half a minute. Without metrics the conservative ultra
// default applies.
func DeriveBasePace(metrics *RunnerMetrics) float64 {
	if metrics == nil {
		return DefaultBasePaceMinPerKm
	}

	pace := DefaultBasePaceMinPerKm
	switch {
	case metrics.KmPerWeek >= 80:
		pace = 6.5
	case metrics.KmPerWeek >= 60:
		pace = 7.0
	case metrics.KmPerWeek >= 40:
		pace = 7.5
	}
	if metrics.Regularity == RegularityFaible {
		pace += 0.5
	}
	return pace
}

// EstimateTrailTime converts distance, elevation gain, terrain technicality,
// runner fitness and environmental conditions into a projected finish-time
// range. Multipliers compose on pace; refuel and endurance-decay costs are
// summed in minutes; rounding happens only at formatting time. Degenerate
// inputs produce a finite zero/near-zero estimate, never NaN or a panic:
// the function is called reactively while users type parameters.
func EstimateTrailTime(in EstimateInput, metrics *RunnerMetrics) TimeEstimate {
	basePace := in.BasePaceMinPerKm
	if basePace <= 0 || !isFinite(basePace) {
		basePace = DeriveBasePace(metrics)
	}

	distance := sanitize(in.DistanceKm)
	gain := sanitize(in.ElevationGainM)

	pace := basePace

	// Fitness multiplier: 100% is neutral, below slows proportionally.
	fitness := in.Params.FitnessLevel
	if fitness <= 0 || !isFinite(fitness) {
		fitness = 100
	}
	fitness = clamp(fitness, MinFitnessLevel, MaxFitnessLevel)
	pace /= fitness / 100

	// Technicality multiplier.
	if factor, ok := technicalFactors[in.Params.TechnicalIndex]; ok {
		pace *= factor
	}

	// Environmental adjustments, only when provided.
	pace *= temperatureFactor(in.Params.TemperatureC)
	pace *= bagWeightFactor(in.Params.BagWeightKg)

	flatMinutes := distance * pace
	climbMinutes := gain / 100 * ClimbMinutesPer100m

	// Endurance decay applies to the back half of the race.
	decayMinutes := enduranceDecay[in.Params.EnduranceIndex] * (distance / 2) * pace

	refuelMinutes := 0.0
	if in.Params.RefuelStops > 0 {
		perStop := in.Params.RefuelTimePerStopMin
		if perStop <= 0 || !isFinite(perStop) {
			perStop = DefaultRefuelTimePerStopMin
		}
		refuelMinutes = float64(in.Params.RefuelStops) * perStop
	}

	total := flatMinutes + climbMinutes + decayMinutes + refuelMinutes
	if distance <= 0 && gain <= 0 {
		total = 0
	}

	return TimeEstimate{
		BasePaceMinPerKm:  basePace,
		FinalPaceMinPerKm: pace,
		TotalMinutes:      total,
		TotalHours:        total / 60,
		Formatted:         FormatDuration(total),
		RangeFormatted:    FormatRange(total*RangeLowFactor, total*RangeHighFactor),
	}
}

// temperatureFactor adds a small pace penalty for extreme heat or cold,
// capped at 15% either way.
func temperatureFactor(tempC *float64) float64 {
	if tempC == nil || !isFinite(*tempC) {
		return 1.0
	}
	t := *tempC
	penalty := 0.0
	switch {
	case t > 22:
		penalty = (t - 22) * 0.005
	case t < 5:
		penalty = (5 - t) * 0.003
	}
	if penalty > 0.15 {
		penalty = 0.15
	}
	return 1 + penalty
}

// bagWeightFactor adds a per-kg pace penalty for carried weight.
func bagWeightFactor(kg *float64) float64 {
	if kg == nil || !isFinite(*kg) || *kg <= 0 {
		return 1.0
	}
	return 1 + *kg*0.01
}

// FormatDuration renders minutes as "30h15" or "45min", rounding to the
// nearest minute only here.
func FormatDuration(minutes float64) string {
	if minutes < 0 || !isFinite(minutes) {
		minutes = 0
	}
	rounded := int(math.Round(minutes))
	hours := rounded / 60
	if hours == 0 {
		return fmt.Sprintf("%dmin", rounded)
	}
	return fmt.Sprintf("%dh%02d", hours, rounded%60)
}

// FormatRange renders a min–max band of minutes as rounded hours, "28h–32h".
func FormatRange(minMinutes, maxMinutes float64) string {
	if minMinutes < 0 || !isFinite(minMinutes) {
		minMinutes = 0
	}
	if maxMinutes < minMinutes || !isFinite(maxMinutes) {
		maxMinutes = minMinutes
	}
	lo := int(math.Round(minMinutes / 60))
	hi := int(math.Round(maxMinutes / 60))
	if hi < lo {
		hi = lo
	}
	return fmt.Sprintf("%dh–%dh", lo, hi)
}

func sanitize(v float64) float64 {
	if v < 0 || !isFinite(v) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
