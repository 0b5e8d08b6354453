// Package normalize validates and orders raw move events per item.
package normalize

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/flowlens/internal/domain/model"
)

// Item parses and orders one item's raw events: timestamps are parsed as
// RFC3339, events are sorted by time, and consecutive moves to the same
// stage are collapsed keeping the earliest timestamp. A zero-event item
// normalizes to a zero-event item; callers drop it naturally because it
// yields no intervals.
//
// An unparseable timestamp or an empty stage name fails the whole item with
// ErrMalformedEvent so the caller can skip it without aborting the run.
func Item(raw model.RawItem) (model.Item, error) {
	events := make([]model.MoveEvent, 0, len(raw.Events))
	for _, re := range raw.Events {
		if re.Stage == "" {
			return model.Item{}, fmt.Errorf("item %s: empty stage name: %w", raw.ID, ErrMalformedEvent)
		}
		at, err := time.Parse(time.RFC3339, re.At)
		if err != nil {
			return model.Item{}, fmt.Errorf("item %s: bad timestamp %q: %w", raw.ID, re.At, ErrMalformedEvent)
		}
		events = append(events, model.MoveEvent{At: at, Stage: re.Stage})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})

	// Resolve equal-timestamp moves by keeping the last one in input order,
	// so the result is strictly increasing in time.
	dedup := events[:0]
	for _, ev := range events {
		if n := len(dedup); n > 0 && !dedup[n-1].At.Before(ev.At) {
			dedup[n-1] = ev
			continue
		}
		dedup = append(dedup, ev)
	}

	// Collapse consecutive no-op moves, keeping the earliest occurrence.
	collapsed := dedup[:0]
	for _, ev := range dedup {
		if n := len(collapsed); n > 0 && collapsed[n-1].Stage == ev.Stage {
			continue
		}
		collapsed = append(collapsed, ev)
	}

	return model.Item{ID: raw.ID, Events: collapsed}, nil
}
