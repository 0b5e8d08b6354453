// Package aggregate reduces per-item snapshots into per-stage weekly stats.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/okian/flowlens/internal/domain/model"
)

// WeekStats holds the per-stage reduction for one week boundary. P90Age has
// a key only for stages with at least one occupant that week; a stage with
// no samples has no defined age, which is distinct from a zero age.
type WeekStats struct {
	Week   time.Time
	Counts map[string]int
	P90Age map[string]time.Duration
}

// Reduce groups snapshots by week boundary and computes, for every tracked
// stage, the occupant count and the P90 age. Counts are zero-filled for all
// tracked stages. The result is aligned with the grid, one entry per
// boundary, ascending.
func Reduce(grid []time.Time, stages []string, snapshots []model.StageSnapshot) []WeekStats {
	byWeek := make(map[time.Time]map[string][]time.Duration, len(grid))
	for _, s := range snapshots {
		stageAges, ok := byWeek[s.Week]
		if !ok {
			stageAges = make(map[string][]time.Duration)
			byWeek[s.Week] = stageAges
		}
		stageAges[s.Stage] = append(stageAges[s.Stage], s.Age)
	}

	out := make([]WeekStats, 0, len(grid))
	for _, w := range grid {
		ws := WeekStats{
			Week:   w,
			Counts: make(map[string]int, len(stages)),
			P90Age: make(map[string]time.Duration),
		}
		for _, stage := range stages {
			ages := byWeek[w][stage]
			ws.Counts[stage] = len(ages)
			if len(ages) > 0 {
				ws.P90Age[stage] = P90(ages)
			}
		}
		out = append(out, ws)
	}
	return out
}

// P90 computes the 90th percentile of ages using the nearest-rank method:
// sort ascending and take index ceil(0.9*n)-1, clamped to [0, n-1]. The
// method is deliberately fixed rather than delegated to a library default,
// since interpolating methods disagree on small samples and reported values
// must be stable across releases. Panics on an empty slice; callers must
// treat n=0 as "no data". The input is not modified.
func P90(ages []time.Duration) time.Duration {
	sorted := make([]time.Duration, len(ages))
	copy(sorted, ages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(math.Ceil(0.9*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
