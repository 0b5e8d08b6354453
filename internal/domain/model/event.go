// Package model contains domain models passed between layers.
package model

import "time"

// RawEvent is a board move event as received from the data source.
// The timestamp stays a string until normalization so a bad value can be
// reported per item instead of failing the whole snapshot decode.
type RawEvent struct {
	At    string // RFC3339 timestamp of the move
	Stage string // destination stage name
}

// RawItem is one work item with its unordered raw move history.
type RawItem struct {
	ID     string
	Events []RawEvent
}

// MoveEvent is a parsed, normalized move: the item entered Stage at At.
type MoveEvent struct {
	At    time.Time
	Stage string
}

// Item is a work item after normalization: events are strictly increasing
// in time and consecutive no-op moves have been collapsed.
type Item struct {
	ID     string
	Events []MoveEvent
}

// StageInterval is a maximal contiguous span during which an item occupied
// one stage. Exit is meaningful only when Open is false; an open interval
// extends to the present.
type StageInterval struct {
	ItemID string
	Stage  string
	Enter  time.Time
	Exit   time.Time
	Open   bool
}

// Contains reports whether t falls inside the interval's [Enter, Exit) span,
// treating an open exit as +inf.
func (iv StageInterval) Contains(t time.Time) bool {
	if t.Before(iv.Enter) {
		return false
	}
	return iv.Open || t.Before(iv.Exit)
}

// StageSnapshot records which stage an item occupied at one week boundary
// and for how long it had been there.
type StageSnapshot struct {
	Week   time.Time
	ItemID string
	Stage  string
	Age    time.Duration
}

// WeeklyMetrics is the final per-week output record. Counts holds an entry
// for every tracked stage (zero-filled); P90Age holds entries only for
// stages that had at least one occupant that week, so a missing key means
// "no data", not a zero duration.
type WeeklyMetrics struct {
	Week       time.Time
	Counts     map[string]int
	P90Age     map[string]time.Duration
	Throughput int
}
