// Package sample determines which stage each item occupied at each week
// boundary and for how long.
package sample

import (
	"time"

	"github.com/okian/flowlens/internal/domain/model"
)

// Item walks one item's intervals across the week grid and emits a snapshot
// for every boundary the item occupied a tracked stage. Both the grid and
// the intervals are time-ordered, so a single cursor advances across them
// instead of searching per boundary.
//
// The reported age is w - max(enter, horizon): an item already in its stage
// before the observation window is counted as present but does not report
// pre-horizon age.
func Item(grid []time.Time, horizon time.Time, intervals []model.StageInterval, tracked map[string]struct{}) []model.StageSnapshot {
	if len(grid) == 0 || len(intervals) == 0 {
		return nil
	}

	var out []model.StageSnapshot
	cur := 0
	for _, w := range grid {
		for cur < len(intervals) && !intervals[cur].Open && !w.Before(intervals[cur].Exit) {
			cur++
		}
		if cur == len(intervals) {
			break
		}
		iv := intervals[cur]
		if !iv.Contains(w) {
			// Item not yet created at this boundary.
			continue
		}
		if _, ok := tracked[iv.Stage]; !ok {
			continue
		}
		enter := iv.Enter
		if enter.Before(horizon) {
			enter = horizon
		}
		out = append(out, model.StageSnapshot{
			Week:   w,
			ItemID: iv.ItemID,
			Stage:  iv.Stage,
			Age:    w.Sub(enter),
		})
	}
	return out
}
