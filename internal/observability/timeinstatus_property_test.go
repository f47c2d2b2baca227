package observability

import (
	"sort"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/brainboard/pkg/models"
)

func levelRank(l AlertLevel) int {
	switch l {
	case AlertYellow:
		return 1
	case AlertRed:
		return 2
	default:
		return 0
	}
}

// Feature: brainboard, Property 5: Alert Level Monotonicity
// For a fixed task and thresholds, the alert level never decreases as time
// passes.
func TestProperty_AlertLevelMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		anchor := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
		task := &models.Task{ID: "t-1", Status: models.StatusAssigned, CreatedAt: anchor}

		yellow := time.Duration(rapid.Int64Range(1, 48).Draw(rt, "yellowHours")) * time.Hour
		red := yellow + time.Duration(rapid.Int64Range(1, 48).Draw(rt, "redGapHours"))*time.Hour
		thresholds := Thresholds{models.StatusAssigned: {Yellow: yellow, Red: red}}

		offsets := rapid.SliceOfN(rapid.Int64Range(0, 400), 2, 20).Draw(rt, "offsets")
		sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

		prevRank := -1
		for _, off := range offsets {
			got := ComputeTimeInStatus(task, anchor.Add(time.Duration(off)*15*time.Minute), thresholds)
			rank := levelRank(got.Level)
			if rank < prevRank {
				t.Fatalf("alert level regressed from rank %d to %d at offset %d", prevRank, rank, off)
			}
			prevRank = rank
		}
	})
}

// Feature: brainboard, Property 6: Level Agrees With Elapsed
// The level reported is exactly the one the elapsed time and thresholds
// dictate, for any generated combination.
func TestProperty_AlertLevelConsistentWithElapsed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		anchor := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
		yellow := time.Duration(rapid.Int64Range(1, 100).Draw(rt, "yellow")) * time.Minute
		red := yellow + time.Duration(rapid.Int64Range(1, 100).Draw(rt, "redGap"))*time.Minute
		elapsed := time.Duration(rapid.Int64Range(0, 300).Draw(rt, "elapsed")) * time.Minute

		task := &models.Task{ID: "t-1", Status: models.StatusAssigned, CreatedAt: anchor}
		thresholds := Thresholds{models.StatusAssigned: {Yellow: yellow, Red: red}}

		got := ComputeTimeInStatus(task, anchor.Add(elapsed), thresholds)

		var want AlertLevel
		switch {
		case elapsed >= red:
			want = AlertRed
		case elapsed >= yellow:
			want = AlertYellow
		default:
			want = AlertNone
		}
		if got.Level != want {
			t.Fatalf("elapsed %s with yellow %s red %s: level %s, want %s",
				elapsed, yellow, red, got.Level, want)
		}
	})
}
