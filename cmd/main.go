package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/okian/flowlens/internal/adapters/render"
	"github.com/okian/flowlens/internal/adapters/source"
	"github.com/okian/flowlens/internal/app"
	"github.com/okian/flowlens/internal/config"
	"github.com/okian/flowlens/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (default: $FLOWLENS_CONFIG)")
		inputFile  = flag.String("input", "", "board snapshot file (overrides snapshot_file)")
		outputDir  = flag.String("output", "", "output directory for .dat/.gnuplot files (overrides output_dir)")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *inputFile, *outputDir, *verbose); err != nil {
		logger.Get().Error(ctx, "run failed", logger.Error(err))
		os.Exit(1)
	}
}

// run loads config and snapshot, computes every project's weekly series,
// and writes the render files. It fails if any configured project could not
// be fully produced.
func run(ctx context.Context, configPath, inputFile, outputDir string, verbose bool) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}
	if inputFile == "" {
		inputFile = cfg.SnapshotFile
	}
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	log := logger.Get().Named("proc")
	log.Info(ctx, "starting run",
		logger.String("run_id", uuid.NewString()),
		logger.String("snapshot", inputFile),
		logger.Int("projects", len(cfg.Projects)))

	snap, err := source.Load(inputFile)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	itemsByProject := snap.ProjectItems(ctx, log)

	inputs := make([]app.ProjectInput, 0, len(cfg.Projects))
	for label, p := range cfg.Projects {
		inputs = append(inputs, app.ProjectInput{
			Label:      label,
			Items:      itemsByProject[p.GID],
			Horizon:    p.Horizon,
			CFDStates:  p.CFDStates,
			DoneStates: p.DoneStates,
		})
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	svc := app.New(
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithLogger(log),
	)
	seriesList, sum := svc.Run(ctx, inputs)

	renderFailed := 0
	for _, ps := range seriesList {
		if err := render.WriteProject(outputDir, ps.Label, ps.Stages, ps.DoneStates, ps.Series); err != nil {
			log.Error(ctx, "rendering project failed", logger.String("project", ps.Label), logger.Error(err))
			renderFailed++
			continue
		}
		log.Info(ctx, "wrote project series",
			logger.String("project", ps.Label),
			logger.Int("weeks", len(ps.Series)),
			logger.Int("skipped_items", ps.SkippedItems))
	}

	log.Info(ctx, "run complete",
		logger.Int("projects_processed", sum.ProjectsProcessed),
		logger.Int("projects_failed", sum.ProjectsFailed),
		logger.Int("items_skipped", sum.ItemsSkipped))

	if sum.ProjectsFailed > 0 || renderFailed > 0 {
		return fmt.Errorf("%d project(s) failed", sum.ProjectsFailed+renderFailed)
	}
	return nil
}
