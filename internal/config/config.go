// Package config defines tool configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// WorkerCount sets the number of per-item reconstruction workers.
	WorkerCount int `koanf:"worker_count"`

	// SnapshotFile is the fetched board snapshot consumed by the processor.
	SnapshotFile string `koanf:"snapshot_file"`

	// OutputDir receives the per-project .dat and .gnuplot files.
	OutputDir string `koanf:"output_dir"`

	// MetricsAddr optionally exposes /metrics during long fetch runs, e.g.
	// ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// Projects maps a short output label to the board it describes.
	Projects map[string]ProjectConfig `koanf:"projects"`
}

// ProjectConfig describes one board to analyze.
type ProjectConfig struct {
	// GID is the board's opaque identifier at the API.
	GID string `koanf:"gid"`

	// Horizon is the earliest week boundary of interest, RFC3339. It is
	// parsed per project at run time so one bad horizon cannot abort the
	// other projects.
	Horizon string `koanf:"horizon"`

	// CFDStates lists tracked stage names in display order.
	CFDStates []string `koanf:"cfd_states"`

	// DoneStates lists the stage names counted as completion.
	DoneStates []string `koanf:"done_states"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		WorkerCount:  runtime.NumCPU(),
		SnapshotFile: "board_data.json",
		OutputDir:    "out",
	}
}
