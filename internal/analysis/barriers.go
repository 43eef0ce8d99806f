package analysis

import "sort"

const (
	// The runner's estimated arrival is assumed to consume 80% of a
	// checkpoint's cutoff budget. Simplification: real races publish fixed
	// absolute cutoff clocks.
	CutoffArrivalShare = 0.8
	// Margin below which a barrier is flagged at risk, hours
	AtRiskMarginHours = 0.5
	// Barriers retained for display
	MaxBarriers = 5
)

// BarrierInfo maps one checkpoint onto the projected time estimate.
type BarrierInfo struct {
	Name                  string  `json:"name"`
	DistanceKm            float64 `json:"distanceKm"`
	CutoffHours           float64 `json:"cutoffHours"`
	EstimatedArrivalHours float64 `json:"estimatedArrivalHours"`
	MarginHours           float64 `json:"marginHours"`
	IsAtRisk              bool    `json:"isAtRisk"`
}

// ProjectBarriers applies the estimate's pace proportionally to each known
// checkpoint distance: arrival is the distance ratio times total estimated
// hours, the cutoff is derived from the 80% arrival-share heuristic and a
// barrier is at risk when the margin drops under 30 minutes. Only the 5 most
// critical barriers are retained, sorted by distance.
func ProjectBarriers(checkpoints []Checkpoint, estimate TimeEstimate, courseDistanceKm float64) []BarrierInfo {
	if courseDistanceKm <= 0 || estimate.TotalHours <= 0 {
		return nil
	}

	barriers := make([]BarrierInfo, 0, len(checkpoints))
	for _, cp := range checkpoints {
		if cp.DistanceKm <= 0 || cp.DistanceKm > courseDistanceKm {
			continue
		}
		arrival := cp.DistanceKm / courseDistanceKm * estimate.TotalHours
		cutoff := arrival / CutoffArrivalShare
		margin := cutoff - arrival
		barriers = append(barriers, BarrierInfo{
			Name:                  cp.Name,
			DistanceKm:            cp.DistanceKm,
			CutoffHours:           cutoff,
			EstimatedArrivalHours: arrival,
			MarginHours:           margin,
			IsAtRisk:              margin < AtRiskMarginHours,
		})
	}

	// Most critical first: smallest margin
	sort.Slice(barriers, func(i, j int) bool {
		return barriers[i].MarginHours < barriers[j].MarginHours
	})
	if len(barriers) > MaxBarriers {
		barriers = barriers[:MaxBarriers]
	}

	sort.Slice(barriers, func(i, j int) bool {
		return barriers[i].DistanceKm < barriers[j].DistanceKm
	})

	return barriers
}
