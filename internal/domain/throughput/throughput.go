// Package throughput counts items newly entering done stages per week.
package throughput

import (
	"time"

	"github.com/okian/flowlens/internal/domain/model"
	"github.com/okian/flowlens/internal/domain/weekgrid"
)

// Count returns, aligned with the grid, the number of distinct items with at
// least one move into a done stage inside each half-open window [w, w+7d).
// An item bouncing between two done stages within one window counts once.
// Events before the first boundary are outside every window and ignored;
// events after the last boundary still land in its window.
func Count(grid []time.Time, items []model.Item, done map[string]struct{}) []int {
	counts := make([]int, len(grid))
	if len(grid) == 0 {
		return counts
	}

	seen := make([]map[string]struct{}, len(grid))
	start := grid[0]
	for _, item := range items {
		for _, ev := range item.Events {
			if _, ok := done[ev.Stage]; !ok {
				continue
			}
			if ev.At.Before(start) {
				continue
			}
			week := int(ev.At.Sub(start) / weekgrid.Week)
			if week >= len(grid) {
				continue
			}
			if seen[week] == nil {
				seen[week] = make(map[string]struct{})
			}
			if _, dup := seen[week][item.ID]; dup {
				continue
			}
			seen[week][item.ID] = struct{}{}
			counts[week]++
		}
	}
	return counts
}
