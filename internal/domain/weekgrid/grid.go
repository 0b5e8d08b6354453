// Package weekgrid derives the weekly sampling boundaries for a run.
package weekgrid

import (
	"fmt"
	"time"
)

// Week is the fixed spacing between grid boundaries.
const Week = 7 * 24 * time.Hour

// Build returns the ordered boundaries [horizon, horizon+7d, ...] truncated
// to the last boundary not after now. Pure: identical inputs always yield an
// identical grid.
func Build(horizon, now time.Time) ([]time.Time, error) {
	if horizon.After(now) {
		return nil, fmt.Errorf("horizon %s is after now %s: %w",
			horizon.Format(time.RFC3339), now.Format(time.RFC3339), ErrInvalidHorizon)
	}

	n := int(now.Sub(horizon)/Week) + 1
	grid := make([]time.Time, n)
	for i := range grid {
		grid[i] = horizon.Add(time.Duration(i) * Week)
	}
	return grid, nil
}
