// Package series merges the weekly metric families into output records.
package series

import (
	"time"

	"github.com/okian/flowlens/internal/domain/aggregate"
	"github.com/okian/flowlens/internal/domain/model"
)

// Assemble joins per-week stage stats and throughput counts, both aligned
// with the grid, into ordered WeeklyMetrics records. Counts and throughput
// are zero-filled for quiet weeks; absent P90 ages stay absent. Ages are
// truncated to whole seconds, which is the serialization granularity of the
// wire format.
func Assemble(grid []time.Time, stats []aggregate.WeekStats, counts []int) []model.WeeklyMetrics {
	out := make([]model.WeeklyMetrics, 0, len(grid))
	for i, w := range grid {
		wm := model.WeeklyMetrics{
			Week:   w,
			Counts: make(map[string]int),
			P90Age: make(map[string]time.Duration),
		}
		if i < len(stats) {
			for stage, c := range stats[i].Counts {
				wm.Counts[stage] = c
			}
			for stage, age := range stats[i].P90Age {
				wm.P90Age[stage] = age.Truncate(time.Second)
			}
		}
		if i < len(counts) {
			wm.Throughput = counts[i]
		}
		out = append(out, wm)
	}
	return out
}
