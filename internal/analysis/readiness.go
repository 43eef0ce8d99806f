package analysis

import (
	"fmt"
	"math"
)

// Readiness is the categorical verdict summarizing training-vs-route fit.
type Readiness string

const (
	ReadinessReady     Readiness = "ready"
	ReadinessNeedsWork Readiness = "needs_work"
	ReadinessRisk      Readiness = "risk"
)

// IssueCategory tags an issue at generation time so the verdict tree never
// has to inspect message text.
type IssueCategory string

const (
	IssueNoMetrics          IssueCategory = "no_metrics"
	IssueDistanceOverreach  IssueCategory = "distance_overreach"
	IssueElevationOverreach IssueCategory = "elevation_overreach"
	IssueLowWeeklyVolume    IssueCategory = "low_weekly_volume"
	IssueLowWeeklyClimb     IssueCategory = "low_weekly_climb"
	IssueLowRegularity      IssueCategory = "low_regularity"
	IssueShortLongRun       IssueCategory = "short_long_run"
	IssueLoadDrop           IssueCategory = "load_drop"
	IssueCheckpoint         IssueCategory = "checkpoint"
	IssueCriticalClimb      IssueCategory = "critical_climb"
	IssueCriticalDescent    IssueCategory = "critical_descent"
)

// Issue is one identified gap between training and course demands. Critical
// is decided where the issue is generated, never re-derived from the message.
type Issue struct {
	Category IssueCategory `json:"category"`
	Message  string        `json:"message"`
	Critical bool          `json:"critical"`
}

// RecPriority buckets a recommendation for display.
type RecPriority string

const (
	PriorityImmediate RecPriority = "immediate"
	PrioritySecondary RecPriority = "secondary"
	PriorityTestLater RecPriority = "test_later"
)

// Recommendation is one actionable suggestion, tagged with its priority at
// generation time.
type Recommendation struct {
	Priority RecPriority `json:"priority"`
	Message  string      `json:"message"`
}

// RecommendationPlan groups deduplicated recommendations by priority.
type RecommendationPlan struct {
	Immediate []string `json:"immediate"`
	Secondary []string `json:"secondary"`
	TestLater []string `json:"testLater"`
}

// NextFourWeeksGoals are the short-term training targets.
type NextFourWeeksGoals struct {
	VolumeKmMin  float64 `json:"volumeKmMin"`
	VolumeKmMax  float64 `json:"volumeKmMax"`
	DPlusMinM    float64 `json:"dPlusMinM"`
	DPlusMaxM    float64 `json:"dPlusMaxM"`
	RunsPerWeek  int     `json:"runsPerWeek"`
	LongRunHours float64 `json:"longRunHours"`
}

// Outlook pairs the two projection assumptions at one horizon.
type Outlook struct {
	IfContinues    Readiness `json:"ifContinues"`
	IfFollowsGoals Readiness `json:"ifFollowsGoals"`
}

// Projection gives the expected verdict at the 3-month and 1-month horizons.
type Projection struct {
	ThreeMonths Outlook `json:"threeMonths"`
	OneMonth    Outlook `json:"oneMonth"`
}

// CourseAnalysis is the full readiness report, derived fresh on every call.
type CourseAnalysis struct {
	Readiness       Readiness          `json:"readiness"`
	Issues          []Issue            `json:"issues"`
	Strengths       []string           `json:"strengths"`
	Recommendations []Recommendation   `json:"recommendations"`
	Plan            RecommendationPlan `json:"plan"`
	Goals           NextFourWeeksGoals `json:"next4WeeksGoals"`
	Projection      Projection         `json:"projection"`
	TimeEstimate    TimeEstimate       `json:"timeEstimate"`
}

// Thresholds of the readiness checks.
const (
	// Coverage tiers, percent of course demand covered by the best long run
	CoverageOverreachPct = 120.0
	CoverageTightPct     = 100.0
	// Ramp target horizon in weeks
	RampWeeks = 6.0
	// Weekly signal vs ramp target tiers
	RampLowRatio  = 0.5
	RampFairRatio = 0.8
	// Minimum long run as a fraction of course distance
	LongRunMinRatio = 0.4
	// Load variation alarms, percent
	LoadDropPct  = -20.0
	LoadSpikePct = 30.0
	// Assumed long-run average speed for the hours target, km/h
	LongRunSpeedKmh = 8.0
	// Estimated durations that trigger endurance-management advice, hours
	LongEffortHours     = 12.0
	VeryLongEffortHours = 20.0
	// Critical climb/descent detection on supplied segments
	CriticalClimbGradePct    = 20.0
	CriticalDescentGradePct  = 30.0
	SustainedClimbGainM      = 500.0
	SustainedClimbMinKm      = 5.0
	SteepDescentDropM        = 500.0
	SteepDescentMaxKm        = 3.0
	BarrierCheckpointMinRate = 1.0
)

type findings struct {
	issues    []Issue
	strengths []string
	recs      []Recommendation
}

func (f *findings) issue(cat IssueCategory, critical bool, format string, args ...any) {
	f.issues = append(f.issues, Issue{Category: cat, Critical: critical, Message: fmt.Sprintf(format, args...)})
}

func (f *findings) strength(format string, args ...any) {
	f.strengths = append(f.strengths, fmt.Sprintf(format, args...))
}

func (f *findings) rec(priority RecPriority, format string, args ...any) {
	f.recs = append(f.recs, Recommendation{Priority: priority, Message: fmt.Sprintf(format, args...)})
}

func (f *findings) criticalCount() int {
	n := 0
	for _, issue := range f.issues {
		if issue.Critical {
			n++
		}
	}
	return n
}

// AnalyzeCourseReadiness compares a runner's rolling training metrics against
// a route's demands. With nil metrics it returns a fixed risk verdict asking
// the user to connect their training data; the baseline time estimate is
// still attached. Segments and raceRef are optional refinements.
func AnalyzeCourseReadiness(metrics *RunnerMetrics, course Course, segments []Segment, raceRef *RaceReference) CourseAnalysis {
	estimate := EstimateTrailTime(EstimateInput{
		DistanceKm:     course.DistanceKm,
		ElevationGainM: course.ElevationGainM,
		Params:         DefaultSimulationParams(course.DistanceKm),
	}, metrics)

	if metrics == nil {
		return noMetricsAnalysis(estimate)
	}

	var f findings
	checkDistanceCoverage(&f, metrics, course)
	checkElevationCoverage(&f, metrics, course)
	checkWeeklyVolume(&f, metrics, course)
	checkRegularity(&f, metrics)
	checkLongRunThreshold(&f, metrics, course)
	checkLoadVariation(&f, metrics)
	checkKnownRace(&f, raceRef)
	checkSegments(&f, segments)
	checkEffortDuration(&f, estimate)

	verdict := verdictFor(&f)

	return CourseAnalysis{
		Readiness:       verdict,
		Issues:          f.issues,
		Strengths:       f.strengths,
		Recommendations: dedupeRecommendations(f.recs),
		Plan:            buildPlan(f.recs),
		Goals:           nextFourWeeksGoals(metrics, course),
		Projection:      projectVerdict(verdict, f.criticalCount()),
		TimeEstimate:    estimate,
	}
}

// noMetricsAnalysis is the degraded result when no training data is
// connected. The risk verdict here is meaningful output, not an error.
func noMetricsAnalysis(estimate TimeEstimate) CourseAnalysis {
	issue := Issue{
		Category: IssueNoMetrics,
		Critical: true,
		Message:  "Aucune donnée d'entraînement disponible pour évaluer votre préparation",
	}
	rec := Recommendation{
		Priority: PriorityImmediate,
		Message:  "Connectez votre compte Strava pour analyser votre préparation",
	}
	verdict := ReadinessRisk
	return CourseAnalysis{
		Readiness:       verdict,
		Issues:          []Issue{issue},
		Recommendations: []Recommendation{rec},
		Plan:            RecommendationPlan{Immediate: []string{rec.Message}},
		Projection: Projection{
			ThreeMonths: Outlook{IfContinues: verdict, IfFollowsGoals: verdict},
			OneMonth:    Outlook{IfContinues: verdict, IfFollowsGoals: verdict},
		},
		TimeEstimate: estimate,
	}
}

// demandRatioPct returns course demand as a percentage of what the runner
// has already achieved. Nothing achieved counts as infinite demand.
func demandRatioPct(demand, achieved float64) float64 {
	if demand <= 0 {
		return 0
	}
	if achieved <= 0 {
		return math.Inf(1)
	}
	return demand / achieved * 100
}

func checkDistanceCoverage(f *findings, m *RunnerMetrics, course Course) {
	ratio := demandRatioPct(course.DistanceKm, m.LongRunDistanceKm)

	switch {
	case ratio > CoverageOverreachPct:
		f.issue(IssueDistanceOverreach, true,
			"La distance de course (%.0f km) dépasse largement votre plus longue sortie (%.0f km)",
			course.DistanceKm, m.LongRunDistanceKm)
		f.rec(PriorityImmediate, "Allongez progressivement vos sorties longues vers la distance de course")
	case ratio > CoverageTightPct:
		f.rec(PrioritySecondary, "Rapprochez votre sortie longue de la distance de course")
	default:
		f.strength("Votre sortie longue couvre déjà la distance de course")
	}
}

func checkElevationCoverage(f *findings, m *RunnerMetrics, course Course) {
	if course.ElevationGainM <= 0 {
		return
	}
	ratio := demandRatioPct(course.ElevationGainM, m.LongRunDPlus)

	switch {
	case ratio > CoverageOverreachPct:
		f.issue(IssueElevationOverreach, true,
			"Le dénivelé de course (%.0f m D+) dépasse largement votre meilleure sortie (%.0f m D+)",
			course.ElevationGainM, m.LongRunDPlus)
		f.rec(PriorityImmediate, "Ajoutez des sorties à fort dénivelé pour préparer le D+ de la course")
	case ratio > CoverageTightPct:
		f.rec(PrioritySecondary, "Augmentez le dénivelé de vos sorties longues")
	default:
		f.strength("Votre meilleure sortie couvre déjà le dénivelé de la course")
	}
}

func checkWeeklyVolume(f *findings, m *RunnerMetrics, course Course) {
	rampKm := course.DistanceKm / RampWeeks
	if rampKm > 0 {
		switch ratio := m.KmPerWeek / rampKm; {
		case ratio < RampLowRatio:
			f.issue(IssueLowWeeklyVolume, true,
				"Volume hebdomadaire insuffisant (%.0f km/sem pour un objectif de %.0f km/sem)",
				m.KmPerWeek, rampKm)
			f.rec(PriorityImmediate, "Augmentez votre volume hebdomadaire par paliers de 10%%")
		case ratio < RampFairRatio:
			f.rec(PrioritySecondary, "Consolidez votre volume hebdomadaire sur les prochaines semaines")
		default:
			f.strength("Votre volume hebdomadaire est au niveau de l'objectif")
		}
	}

	rampDPlus := course.ElevationGainM / RampWeeks
	if rampDPlus > 0 {
		switch ratio := m.DPlusPerWeek / rampDPlus; {
		case ratio < RampLowRatio:
			f.issue(IssueLowWeeklyClimb, false,
				"Dénivelé hebdomadaire insuffisant (%.0f m/sem pour un objectif de %.0f m/sem)",
				m.DPlusPerWeek, rampDPlus)
			f.rec(PriorityImmediate, "Intégrez une séance de côtes ou de dénivelé chaque semaine")
		case ratio < RampFairRatio:
			f.rec(PrioritySecondary, "Augmentez progressivement le dénivelé hebdomadaire")
		default:
			f.strength("Votre dénivelé hebdomadaire est au niveau de l'objectif")
		}
	}
}

func checkRegularity(f *findings, m *RunnerMetrics) {
	switch m.Regularity {
	case RegularityFaible:
		f.issue(IssueLowRegularity, true, "Régularité d'entraînement insuffisante")
		f.rec(PriorityImmediate, "Stabilisez d'abord 3 sorties par semaine avant d'augmenter la charge")
	case RegularityMoyenne:
		f.rec(PrioritySecondary, "Visez une semaine d'entraînement plus régulière")
	case RegularityBonne:
		f.strength("Entraînement régulier")
	}
}

func checkLongRunThreshold(f *findings, m *RunnerMetrics, course Course) {
	target := course.DistanceKm * LongRunMinRatio
	if target <= 0 || m.LongRunDistanceKm >= target {
		return
	}
	f.issue(IssueShortLongRun, false,
		"Votre plus longue sortie (%.0f km) est sous le seuil des 40%% de la distance de course",
		m.LongRunDistanceKm)
	f.rec(PriorityImmediate, "Construisez une sortie longue d'au moins %.0f km", target)
}

func checkLoadVariation(f *findings, m *RunnerMetrics) {
	switch {
	case m.VariationPct < LoadDropPct:
		f.issue(IssueLoadDrop, false,
			"Charge d'entraînement en forte baisse (%.0f%%) sur la période récente", m.VariationPct)
	case m.VariationPct > LoadSpikePct:
		f.rec(PriorityImmediate,
			"Charge en forte hausse (+%.0f%%) : ralentissez la progression pour limiter le risque de blessure",
			m.VariationPct)
	}
}

// checkKnownRace surfaces the single most failure-prone checkpoint of a
// matched reference race.
func checkKnownRace(f *findings, ref *RaceReference) {
	if ref == nil {
		return
	}
	var worst *RaceCheckpoint
	for i := range ref.Checkpoints {
		cp := &ref.Checkpoints[i]
		if cp.AbandonRatePct < BarrierCheckpointMinRate {
			continue
		}
		if worst == nil || cp.AbandonRatePct > worst.AbandonRatePct {
			worst = cp
		}
	}
	if worst == nil {
		return
	}
	f.issue(IssueCheckpoint, false,
		"Le point de passage %s (km %.0f) concentre %.0f%% des abandons sur %s",
		worst.Name, worst.DistanceKm, worst.AbandonRatePct, ref.Name)
	f.rec(PriorityTestLater, "Préparez une stratégie spécifique pour le passage de %s", worst.Name)
}

// checkSegments scans supplied route segments for the most extreme critical
// climb and descent.
func checkSegments(f *findings, segments []Segment) {
	var worstClimb, worstDescent *Segment

	for i := range segments {
		seg := &segments[i]
		gain := seg.EndElevM - seg.StartElevM
		length := seg.DistanceKm()

		if seg.GradePct > 0 {
			sustained := gain > SustainedClimbGainM && length > SustainedClimbMinKm
			if seg.GradePct > CriticalClimbGradePct || sustained {
				if worstClimb == nil || seg.GradePct > worstClimb.GradePct {
					worstClimb = seg
				}
			}
			continue
		}

		drop := -gain
		steep := drop > SteepDescentDropM && length < SteepDescentMaxKm
		if math.Abs(seg.GradePct) > CriticalDescentGradePct || steep {
			if worstDescent == nil || math.Abs(seg.GradePct) > math.Abs(worstDescent.GradePct) {
				worstDescent = seg
			}
		}
	}

	if worstClimb != nil {
		f.issue(IssueCriticalClimb, false,
			"Montée critique au km %.0f (%.0f%%)", worstClimb.StartKm, worstClimb.GradePct)
		f.rec(PriorityTestLater, "Répétez des montées longues en randonnée-course avec bâtons")
	}
	if worstDescent != nil {
		f.issue(IssueCriticalDescent, false,
			"Descente critique au km %.0f (%.0f%%)", worstDescent.StartKm, math.Abs(worstDescent.GradePct))
		f.rec(PriorityTestLater, "Travaillez la descente technique sur terrain similaire")
	}
}

// checkEffortDuration adds endurance-management advice for very long
// projected efforts.
func checkEffortDuration(f *findings, estimate TimeEstimate) {
	// The thresholds are cumulative: a 22h effort needs the nutrition
	// strategy as much as the sleep plan.
	if estimate.TotalHours > LongEffortHours {
		f.rec(PrioritySecondary, "Au-delà de 12h d'effort : testez votre stratégie nutrition en conditions réelles")
	}
	if estimate.TotalHours > VeryLongEffortHours {
		f.rec(PriorityImmediate, "Au-delà de 20h d'effort : préparez la gestion du sommeil et des barrières horaires")
	}
}

// verdictFor is the ordered decision tree over tagged findings: two critical
// issues mean risk, any issue or more than three recommendations mean
// needs_work, otherwise ready.
func verdictFor(f *findings) Readiness {
	if f.criticalCount() >= 2 {
		return ReadinessRisk
	}
	if len(f.issues) > 0 || len(f.recs) > 3 {
		return ReadinessNeedsWork
	}
	return ReadinessReady
}

// nextFourWeeksGoals computes volume and D+ targets as the wider of 15% above
// the current weekly numbers or half the 6-week ramp target, keeping min
// strictly below max with a minimum spread.
func nextFourWeeksGoals(m *RunnerMetrics, course Course) NextFourWeeksGoals {
	rampKm := course.DistanceKm / RampWeeks
	rampDPlus := course.ElevationGainM / RampWeeks

	volMin := math.Max(m.KmPerWeek*1.15, rampKm*0.5)
	volMax := math.Max(volMin*1.25, volMin+10)

	dPlusMin := math.Max(m.DPlusPerWeek*1.15, rampDPlus*0.5)
	dPlusMax := math.Max(dPlusMin*1.25, dPlusMin+200)

	runs := 4
	if m.Regularity == RegularityFaible {
		runs = 3
	}

	longRunHours := course.DistanceKm * LongRunMinRatio / LongRunSpeedKmh

	return NextFourWeeksGoals{
		VolumeKmMin:  math.Round(volMin),
		VolumeKmMax:  math.Round(volMax),
		DPlusMinM:    math.Round(dPlusMin),
		DPlusMaxM:    math.Round(dPlusMax),
		RunsPerWeek:  runs,
		LongRunHours: math.Round(longRunHours*2) / 2,
	}
}

// projectVerdict applies the fixed projection transition table. "If
// continues" repeats the current verdict unchanged at both horizons.
func projectVerdict(verdict Readiness, criticalCount int) Projection {
	continues := Outlook{IfContinues: verdict}
	threeMonths, oneMonth := continues, continues

	switch verdict {
	case ReadinessRisk:
		threeMonths.IfFollowsGoals = ReadinessNeedsWork
		if criticalCount >= 3 {
			oneMonth.IfFollowsGoals = ReadinessNeedsWork
		} else {
			oneMonth.IfFollowsGoals = ReadinessReady
		}
	case ReadinessNeedsWork:
		threeMonths.IfFollowsGoals = ReadinessReady
		oneMonth.IfFollowsGoals = ReadinessReady
	default:
		threeMonths.IfFollowsGoals = ReadinessReady
		oneMonth.IfFollowsGoals = ReadinessReady
	}

	return Projection{ThreeMonths: threeMonths, OneMonth: oneMonth}
}

// dedupeRecommendations drops duplicate messages, keeping first occurrence.
func dedupeRecommendations(recs []Recommendation) []Recommendation {
	seen := make(map[string]bool, len(recs))
	out := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		if seen[rec.Message] {
			continue
		}
		seen[rec.Message] = true
		out = append(out, rec)
	}
	return out
}

// buildPlan buckets deduplicated recommendations by their priority tags. If
// nothing landed in the immediate bucket, the first recommendation is
// promoted there.
func buildPlan(recs []Recommendation) RecommendationPlan {
	var plan RecommendationPlan
	for _, rec := range dedupeRecommendations(recs) {
		switch rec.Priority {
		case PriorityImmediate:
			plan.Immediate = append(plan.Immediate, rec.Message)
		case PrioritySecondary:
			plan.Secondary = append(plan.Secondary, rec.Message)
		case PriorityTestLater:
			plan.TestLater = append(plan.TestLater, rec.Message)
		}
	}

	if len(plan.Immediate) == 0 {
		switch {
		case len(plan.Secondary) > 0:
			plan.Immediate = append(plan.Immediate, plan.Secondary[0])
			plan.Secondary = plan.Secondary[1:]
		case len(plan.TestLater) > 0:
			plan.Immediate = append(plan.Immediate, plan.TestLater[0])
			plan.TestLater = plan.TestLater[1:]
		}
	}

	return plan
}
