package throughput_test

import (
	"testing"
	"time"

	"github.com/okian/flowlens/internal/domain/model"
	"github.com/okian/flowlens/internal/domain/throughput"
	"github.com/okian/flowlens/internal/domain/weekgrid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCount(t *testing.T) {
	t0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	done := map[string]struct{}{"Done": {}, "Archived": {}}

	Convey("Given item A entering Done at t0+10d", t, func() {
		items := []model.Item{
			{
				ID: "a",
				Events: []model.MoveEvent{
					{At: t0, Stage: "Backlog"},
					{At: t0.AddDate(0, 0, 3), Stage: "Doing"},
					{At: t0.AddDate(0, 0, 10), Stage: "Done"},
				},
			},
		}
		grid, err := weekgrid.Build(t0, t0.AddDate(0, 0, 15))
		So(err, ShouldBeNil)

		Convey("When counting throughput", func() {
			counts := throughput.Count(grid, items, done)

			Convey("Then the week containing t0+10d should count 1", func() {
				So(counts, ShouldResemble, []int{0, 1, 0})
			})
		})
	})

	Convey("Given an item moving between two done stages in one window", t, func() {
		items := []model.Item{
			{
				ID: "b",
				Events: []model.MoveEvent{
					{At: t0.AddDate(0, 0, 1), Stage: "Done"},
					{At: t0.AddDate(0, 0, 2), Stage: "Archived"},
				},
			},
		}
		grid, err := weekgrid.Build(t0, t0.AddDate(0, 0, 7))
		So(err, ShouldBeNil)

		Convey("When counting throughput", func() {
			counts := throughput.Count(grid, items, done)

			Convey("Then the item should count once, not per event", func() {
				So(counts, ShouldResemble, []int{1, 0})
			})
		})
	})

	Convey("Given a done event after the last boundary but inside its window", t, func() {
		items := []model.Item{
			{
				ID:     "c",
				Events: []model.MoveEvent{{At: t0.AddDate(0, 0, 9), Stage: "Done"}},
			},
		}
		grid, err := weekgrid.Build(t0, t0.AddDate(0, 0, 8))
		So(err, ShouldBeNil) // boundaries: t0, t0+7d

		Convey("When counting throughput", func() {
			counts := throughput.Count(grid, items, done)

			Convey("Then the event should land in the last week's window", func() {
				So(counts, ShouldResemble, []int{0, 1})
			})
		})
	})

	Convey("Given a done event before the horizon", t, func() {
		items := []model.Item{
			{
				ID:     "d",
				Events: []model.MoveEvent{{At: t0.AddDate(0, 0, -1), Stage: "Done"}},
			},
		}
		grid, err := weekgrid.Build(t0, t0.AddDate(0, 0, 7))
		So(err, ShouldBeNil)

		Convey("When counting throughput", func() {
			counts := throughput.Count(grid, items, done)

			Convey("Then nothing should be counted", func() {
				So(counts, ShouldResemble, []int{0, 0})
			})
		})
	})

	Convey("Given no items", t, func() {
		grid, err := weekgrid.Build(t0, t0.AddDate(0, 0, 7))
		So(err, ShouldBeNil)

		Convey("When counting throughput", func() {
			counts := throughput.Count(grid, nil, done)

			Convey("Then every week should be zero", func() {
				So(counts, ShouldResemble, []int{0, 0})
			})
		})
	})
}
