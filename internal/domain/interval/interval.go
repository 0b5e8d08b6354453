// Package interval reconstructs stage-occupancy intervals from move events.
package interval

import "github.com/okian/flowlens/internal/domain/model"

// Reconstruct chains one item's normalized events into consecutive
// stage-occupancy intervals. The first event marks entry into its
// destination stage; there is no occupancy before it. Each interval's exit
// is the next event's timestamp, and the last interval is open: "done"
// stages are not special here, throughput is derived from entry events, not
// from interval closure.
//
// The result is contiguous and non-overlapping: interval k's exit equals
// interval k+1's enter. A zero-event item yields no intervals.
func Reconstruct(item model.Item) []model.StageInterval {
	if len(item.Events) == 0 {
		return nil
	}

	out := make([]model.StageInterval, 0, len(item.Events))
	for i, ev := range item.Events {
		iv := model.StageInterval{
			ItemID: item.ID,
			Stage:  ev.Stage,
			Enter:  ev.At,
		}
		if i+1 < len(item.Events) {
			iv.Exit = item.Events[i+1].At
		} else {
			iv.Open = true
		}
		out = append(out, iv)
	}
	return out
}
