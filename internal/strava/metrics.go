package strava

import (
	"math"
	"time"

	"trailprep/internal/analysis"
)

const (
	// Rolling window the training signal is computed over
	MetricsWindowDays  = 28
	MetricsWindowWeeks = 4
	// Regularity thresholds over the window
	RegularRunsPerWeek = 3
	RegularActiveWeeks = 3
)

// ComputeRunnerMetrics derives the training signal from the activities of the
// last 28 days, relative to now. It is a pure function over its inputs so it
// tests without the network. Returns nil when the window holds no runs: a
// connected but empty account degrades the same way as no account.
func ComputeRunnerMetrics(activities []Activity, now time.Time) *analysis.RunnerMetrics {
	windowStart := now.AddDate(0, 0, -MetricsWindowDays)

	var runs []Activity
	for _, a := range activities {
		if a.IsRun() && !a.StartDate.Before(windowStart) && a.StartDate.Before(now) {
			runs = append(runs, a)
		}
	}
	if len(runs) == 0 {
		return nil
	}

	var totalKm, totalGain float64
	var longRun Activity
	runsPerWeek := make([]int, MetricsWindowWeeks)

	for _, run := range runs {
		totalKm += run.DistanceKm()
		totalGain += run.TotalElevationGain
		if run.Distance > longRun.Distance {
			longRun = run
		}

		// Week 0 is the most recent
		week := int(now.Sub(run.StartDate).Hours() / 24 / 7)
		if week >= 0 && week < MetricsWindowWeeks {
			runsPerWeek[week]++
		}
	}

	recentLoad := loadScore(runs, now.AddDate(0, 0, -14), now)
	previousLoad := loadScore(runs, windowStart, now.AddDate(0, 0, -14))

	variation := 0.0
	switch {
	case previousLoad > 0:
		variation = (recentLoad - previousLoad) / previousLoad * 100
	case recentLoad > 0:
		variation = 100
	}

	return &analysis.RunnerMetrics{
		KmPerWeek:         round1(totalKm / MetricsWindowWeeks),
		DPlusPerWeek:      math.Round(totalGain / MetricsWindowWeeks),
		LongRunDistanceKm: round1(longRun.DistanceKm()),
		LongRunDPlus:      math.Round(longRun.TotalElevationGain),
		Regularity:        regularityOf(runsPerWeek),
		VariationPct:      math.Round(variation),
		LoadScore:         round1((totalKm + totalGain/100) / MetricsWindowWeeks),
		LoadDelta:         round1(recentLoad - previousLoad),
	}
}

// loadScore sums km plus D+ per 100 m over [from, to).
func loadScore(runs []Activity, from, to time.Time) float64 {
	var load float64
	for _, run := range runs {
		if run.StartDate.Before(from) || !run.StartDate.Before(to) {
			continue
		}
		load += run.DistanceKm() + run.TotalElevationGain/100
	}
	return load
}

// regularityOf grades week-by-week run counts: three solid weeks of three or
// more runs is bonne, three active weeks is moyenne, anything less faible.
func regularityOf(runsPerWeek []int) analysis.Regularity {
	solidWeeks, activeWeeks := 0, 0
	for _, count := range runsPerWeek {
		if count >= RegularRunsPerWeek {
			solidWeeks++
		}
		if count >= 1 {
			activeWeeks++
		}
	}

	switch {
	case solidWeeks >= RegularActiveWeeks:
		return analysis.RegularityBonne
	case activeWeeks >= RegularActiveWeeks:
		return analysis.RegularityMoyenne
	default:
		return analysis.RegularityFaible
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
