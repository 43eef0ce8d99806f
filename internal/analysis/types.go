package analysis

// ProfilePoint is a single sample of an elevation profile.
type ProfilePoint struct {
	DistanceKm float64 `json:"distanceKm"`
	ElevationM float64 `json:"elevationM"`
}

// ElevationProfile is an ordered sequence of profile samples with strictly
// increasing distances. It is produced once from a GPX import and never
// mutated afterwards.
type ElevationProfile []ProfilePoint

// RouteStats summarizes a route's overall demands.
type RouteStats struct {
	DistanceKm     float64 `json:"distanceKm"`
	ElevationGainM float64 `json:"elevationGainM"`
	ElevationLossM float64 `json:"elevationLossM"`
}

// Regularity is the categorical training-frequency consistency signal.
type Regularity string

const (
	RegularityBonne   Regularity = "bonne"
	RegularityMoyenne Regularity = "moyenne"
	RegularityFaible  Regularity = "faible"
)

// RunnerMetrics is the weekly and long-run training signal computed from a
// runner's activity history. A nil *RunnerMetrics means no connected account;
// every consumer must degrade to a "no data" result instead of failing.
type RunnerMetrics struct {
	KmPerWeek         float64    `json:"kmPerWeek"`
	DPlusPerWeek      float64    `json:"dPlusPerWeek"`
	LongRunDistanceKm float64    `json:"longRunDistanceKm"`
	LongRunDPlus      float64    `json:"longRunDPlus"`
	Regularity        Regularity `json:"regularity"`
	VariationPct      float64    `json:"variationPct"`
	LoadScore         float64    `json:"loadScore"`
	LoadDelta         float64    `json:"loadDelta"`
}

// Technicity is a terrain difficulty tier derived from grade volatility,
// independent of runner capability.
type Technicity string

const (
	TechnicityRolling   Technicity = "rolling"
	TechnicityTechnical Technicity = "technical"
	TechnicityChaos     Technicity = "chaos"
)

// Segment is one consecutive slice of a profile with a single grade and
// technicity tier.
type Segment struct {
	StartKm    float64    `json:"startKm"`
	EndKm      float64    `json:"endKm"`
	StartElevM float64    `json:"startElevM"`
	EndElevM   float64    `json:"endElevM"`
	GradePct   float64    `json:"gradePct"`
	Technicity Technicity `json:"technicity"`
}

// DistanceKm returns the segment length in kilometers.
func (s Segment) DistanceKm() float64 {
	return s.EndKm - s.StartKm
}

// Difficulty is the runner-relative difficulty tier of a profile zone.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
	DifficultyCritical Difficulty = "critical"
)

// ProfileZone is a contiguous run of profile segments sharing one difficulty
// tier. Zones are built by merging adjacent segments and never split once
// committed.
type ProfileZone struct {
	StartDistanceKm float64    `json:"startDistanceKm"`
	EndDistanceKm   float64    `json:"endDistanceKm"`
	Difficulty      Difficulty `json:"difficulty"`
	ElevationGainM  float64    `json:"elevationGainM"`
	ElevationLossM  float64    `json:"elevationLossM"`
	AverageGradePct float64    `json:"averageGradePct"`
	Description     string     `json:"description"`
	Color           string     `json:"color"`
}

// Course describes the route a runner is preparing for.
type Course struct {
	Name           string  `json:"name"`
	DistanceKm     float64 `json:"distanceKm"`
	ElevationGainM float64 `json:"elevationGainM"`
	ElevationLossM float64 `json:"elevationLossM"`
}

// Checkpoint is a known intermediate point of a course.
type Checkpoint struct {
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distanceKm"`
}

// RaceCheckpoint carries reference data about a checkpoint of a known race,
// including how often runners abandon there.
type RaceCheckpoint struct {
	Name           string  `json:"name"`
	DistanceKm     float64 `json:"distanceKm"`
	AbandonRatePct float64 `json:"abandonRatePct"`
}

// RaceReference is optional reference data for a course that matches a known
// race.
type RaceReference struct {
	Name        string           `json:"name"`
	Checkpoints []RaceCheckpoint `json:"checkpoints"`
}
