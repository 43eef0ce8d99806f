package analysis

import (
	"math"
	"testing"
)

func tenHourEstimate() TimeEstimate {
	return TimeEstimate{TotalMinutes: 600, TotalHours: 10}
}

func TestProjectBarriersProportionalArrival(t *testing.T) {
	checkpoints := []Checkpoint{
		{Name: "Col du Joly", DistanceKm: 25},
		{Name: "Courmayeur", DistanceKm: 50},
	}

	barriers := ProjectBarriers(checkpoints, tenHourEstimate(), 100)
	if len(barriers) != 2 {
		t.Fatalf("got %d barriers, want 2", len(barriers))
	}

	first := barriers[0]
	if math.Abs(first.EstimatedArrivalHours-2.5) > 1e-9 {
		t.Errorf("arrival = %v, want 2.5", first.EstimatedArrivalHours)
	}
	// Arrival consumes 80% of the cutoff budget
	if math.Abs(first.CutoffHours-2.5/0.8) > 1e-9 {
		t.Errorf("cutoff = %v, want %v", first.CutoffHours, 2.5/0.8)
	}
	if math.Abs(first.MarginHours-(first.CutoffHours-first.EstimatedArrivalHours)) > 1e-9 {
		t.Errorf("margin inconsistent: %+v", first)
	}
}

func TestProjectBarriersAtRiskFlag(t *testing.T) {
	// With a 10h estimate over 100 km, margin is 25% of arrival: checkpoints
	// before 20 km arrive under 2h and fall below the 30-minute margin.
	checkpoints := []Checkpoint{
		{Name: "early", DistanceKm: 10},
		{Name: "late", DistanceKm: 80},
	}

	barriers := ProjectBarriers(checkpoints, tenHourEstimate(), 100)
	if len(barriers) != 2 {
		t.Fatalf("got %d barriers, want 2", len(barriers))
	}
	if !barriers[0].IsAtRisk {
		t.Errorf("early barrier not flagged at risk: %+v", barriers[0])
	}
	if barriers[1].IsAtRisk {
		t.Errorf("late barrier wrongly flagged at risk: %+v", barriers[1])
	}
}

func TestProjectBarriersKeepsFiveMostCritical(t *testing.T) {
	var checkpoints []Checkpoint
	for km := 10.0; km <= 90; km += 10 {
		checkpoints = append(checkpoints, Checkpoint{Name: "cp", DistanceKm: km})
	}

	barriers := ProjectBarriers(checkpoints, tenHourEstimate(), 100)
	if len(barriers) != MaxBarriers {
		t.Fatalf("got %d barriers, want %d", len(barriers), MaxBarriers)
	}

	// Smallest margins are the earliest checkpoints, and the result is
	// sorted by distance.
	for i, want := range []float64{10, 20, 30, 40, 50} {
		if barriers[i].DistanceKm != want {
			t.Errorf("barrier %d at km %v, want %v", i, barriers[i].DistanceKm, want)
		}
	}
}

func TestProjectBarriersDegenerate(t *testing.T) {
	checkpoints := []Checkpoint{{Name: "cp", DistanceKm: 10}}

	if got := ProjectBarriers(checkpoints, TimeEstimate{}, 100); got != nil {
		t.Errorf("zero estimate: got %v, want nil", got)
	}
	if got := ProjectBarriers(checkpoints, tenHourEstimate(), 0); got != nil {
		t.Errorf("zero course distance: got %v, want nil", got)
	}

	// Checkpoints outside the course range are dropped.
	outside := []Checkpoint{{Name: "beyond", DistanceKm: 150}, {Name: "origin", DistanceKm: 0}}
	if got := ProjectBarriers(outside, tenHourEstimate(), 100); len(got) != 0 {
		t.Errorf("out-of-range checkpoints kept: %v", got)
	}
}
