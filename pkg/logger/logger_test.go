package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := Get()

			Convey("Then it should not be nil", func() {
				So(l, ShouldNotBeNil)
			})

			Convey("And logging at every level should not panic", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug message", String("k", "v"))
					l.Info(ctx, "info message", Int("n", 1))
					l.Warn(ctx, "warn message", Duration("d", time.Second))
					l.Error(ctx, "error message", Error(nil))
				}, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger", func() {
			l := Named("grid")

			Convey("Then it should not be nil", func() {
				So(l, ShouldNotBeNil)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the global level var", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When setting known levels", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level", func() {
			err := SetLevelString("loud")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When setting a level directly", func() {
			So(func() { SetLevel(slog.LevelWarn) }, ShouldNotPanic)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		now := time.Now()

		Convey("Then each should carry its key and value", func() {
			So(String("a", "b").Key, ShouldEqual, "a")
			So(Int("n", 3).Value, ShouldEqual, 3)
			So(Duration("d", time.Minute).Value, ShouldEqual, time.Minute)
			So(Time("t", now).Value, ShouldEqual, now)
			So(Any("x", 1.5).Value, ShouldEqual, 1.5)
			So(Error(nil).Key, ShouldEqual, "error")
		})
	})
}
