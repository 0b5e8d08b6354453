package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleYAML = `
log_level: debug
worker_count: 3
snapshot_file: snap.json
output_dir: charts
projects:
  team_a:
    gid: "1201234567890"
    horizon: "2024-01-01T00:00:00Z"
    cfd_states: ["Backlog", "Doing", "Review"]
    done_states: ["Done"]
`

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no env", t, func() {
		Convey("When loading", func() {
			cfg, err := Load(ctx, "")

			Convey("Then defaults should come back", func() {
				So(err, ShouldBeNil)
				So(cfg.OutputDir, ShouldEqual, "out")
			})
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "flowlens.yaml")
		So(os.WriteFile(path, []byte(sampleYAML), 0o600), ShouldBeNil)

		Convey("When loading with an explicit path", func() {
			cfg, err := Load(ctx, path)

			Convey("Then file values should override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.WorkerCount, ShouldEqual, 3)
				So(cfg.OutputDir, ShouldEqual, "charts")
			})

			Convey("And projects should be populated", func() {
				So(len(cfg.Projects), ShouldEqual, 1)
				p := cfg.Projects["team_a"]
				So(p.GID, ShouldEqual, "1201234567890")
				So(p.CFDStates, ShouldResemble, []string{"Backlog", "Doing", "Review"})
				So(p.DoneStates, ShouldResemble, []string{"Done"})
			})
		})

		Convey("When loading via FLOWLENS_CONFIG", func() {
			So(os.Setenv("FLOWLENS_CONFIG", path), ShouldBeNil)
			defer func() { _ = os.Unsetenv("FLOWLENS_CONFIG") }()

			cfg, err := Load(ctx, "")

			Convey("Then the file should be picked up", func() {
				So(err, ShouldBeNil)
				So(cfg.OutputDir, ShouldEqual, "charts")
			})
		})

		Convey("When env overrides the file", func() {
			So(os.Setenv("FLOWLENS_OUTPUT_DIR", "elsewhere"), ShouldBeNil)
			defer func() { _ = os.Unsetenv("FLOWLENS_OUTPUT_DIR") }()

			cfg, err := Load(ctx, path)

			Convey("Then env should win", func() {
				So(err, ShouldBeNil)
				So(cfg.OutputDir, ShouldEqual, "elsewhere")
			})
		})
	})

	Convey("Given a missing config file path", t, func() {
		Convey("When loading", func() {
			_, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))

			Convey("Then it should fail with ErrLoadConfig", func() {
				So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
			})
		})
	})

	Convey("Given a project without a gid", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "flowlens.yaml")
		bad := "projects:\n  team_b:\n    horizon: \"2024-01-01T00:00:00Z\"\n"
		So(os.WriteFile(path, []byte(bad), 0o600), ShouldBeNil)

		Convey("When loading", func() {
			_, err := Load(ctx, path)

			Convey("Then it should fail with ErrInvalidConfig", func() {
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
