package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if FLOWLENS_CONFIG is set (or path is non-empty)
//  3. env (prefix FLOWLENS_)
//
// path, when non-empty, overrides the FLOWLENS_CONFIG env var; the CLI flag
// plumbs through here.
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("FLOWLENS_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: FLOWLENS_OUTPUT_DIR, FLOWLENS_WORKER_COUNT, ...
	// Map env keys like FLOWLENS_WORKER_COUNT -> worker_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("FLOWLENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "flowlens_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Basic validation. Project-level problems (bad horizon, empty stage
	// lists) are deliberately not validated here: they abort one project at
	// run time, not the whole load.
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if cfg.SnapshotFile == "" {
		return nil, fmt.Errorf("%w: snapshot_file must not be empty", ErrInvalidConfig)
	}
	for label, p := range cfg.Projects {
		if p.GID == "" {
			return nil, fmt.Errorf("%w: project %s: gid must not be empty", ErrInvalidConfig, label)
		}
	}
	return &cfg, nil
}
