package aggregate_test

import (
	"testing"
	"time"

	"github.com/okian/flowlens/internal/domain/aggregate"
	"github.com/okian/flowlens/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestP90(t *testing.T) {
	Convey("Given the nearest-rank P90", t, func() {
		Convey("When n = 1", func() {
			Convey("Then P90 equals the single age", func() {
				So(aggregate.P90([]time.Duration{days(5)}), ShouldEqual, days(5))
			})
		})

		Convey("When n = 10", func() {
			ages := make([]time.Duration, 0, 10)
			for i := 10; i >= 1; i-- { // unsorted input
				ages = append(ages, days(i))
			}

			Convey("Then P90 picks index ceil(0.9*10)-1 = 8 of the sorted ages", func() {
				So(aggregate.P90(ages), ShouldEqual, days(9))
			})

			Convey("And the input slice is not reordered", func() {
				_ = aggregate.P90(ages)
				So(ages[0], ShouldEqual, days(10))
			})
		})

		Convey("When n = 2", func() {
			Convey("Then P90 picks the larger value", func() {
				So(aggregate.P90([]time.Duration{days(1), days(3)}), ShouldEqual, days(3))
			})
		})

		Convey("When sample ages grow", func() {
			a := aggregate.P90([]time.Duration{days(1), days(2), days(3)})
			b := aggregate.P90([]time.Duration{days(2), days(3), days(4)})

			Convey("Then P90 is monotonically non-decreasing", func() {
				So(b, ShouldBeGreaterThanOrEqualTo, a)
			})
		})
	})
}

func TestReduce(t *testing.T) {
	w0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	w1 := w0.AddDate(0, 0, 7)
	grid := []time.Time{w0, w1}
	stages := []string{"Backlog", "Doing"}

	Convey("Given snapshots across two weeks", t, func() {
		snaps := []model.StageSnapshot{
			{Week: w0, ItemID: "a", Stage: "Backlog", Age: days(1)},
			{Week: w0, ItemID: "b", Stage: "Backlog", Age: days(3)},
			{Week: w1, ItemID: "a", Stage: "Doing", Age: days(2)},
		}

		Convey("When reducing", func() {
			stats := aggregate.Reduce(grid, stages, snaps)

			Convey("Then one entry per grid boundary should be produced, ascending", func() {
				So(len(stats), ShouldEqual, 2)
				So(stats[0].Week, ShouldEqual, w0)
				So(stats[1].Week, ShouldEqual, w1)
			})

			Convey("And counts should match the snapshots per stage", func() {
				So(stats[0].Counts["Backlog"], ShouldEqual, 2)
				So(stats[0].Counts["Doing"], ShouldEqual, 0)
				So(stats[1].Counts["Doing"], ShouldEqual, 1)
			})

			Convey("And P90 should be present only for occupied stages", func() {
				So(stats[0].P90Age["Backlog"], ShouldEqual, days(3))
				_, ok := stats[0].P90Age["Doing"]
				So(ok, ShouldBeFalse)
				So(stats[1].P90Age["Doing"], ShouldEqual, days(2))
			})
		})
	})

	Convey("Given no snapshots at all", t, func() {
		Convey("When reducing", func() {
			stats := aggregate.Reduce(grid, stages, nil)

			Convey("Then every week should be present with zero counts and absent ages", func() {
				So(len(stats), ShouldEqual, 2)
				for _, ws := range stats {
					for _, st := range stages {
						So(ws.Counts[st], ShouldEqual, 0)
					}
					So(len(ws.P90Age), ShouldEqual, 0)
				}
			})
		})
	})
}
