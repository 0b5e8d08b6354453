// Package app orchestrates the weekly metrics pipeline across projects.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/flowlens/internal/domain/aggregate"
	"github.com/okian/flowlens/internal/domain/interval"
	"github.com/okian/flowlens/internal/domain/model"
	"github.com/okian/flowlens/internal/domain/normalize"
	"github.com/okian/flowlens/internal/domain/sample"
	"github.com/okian/flowlens/internal/domain/series"
	"github.com/okian/flowlens/internal/domain/throughput"
	"github.com/okian/flowlens/internal/domain/weekgrid"
	"github.com/okian/flowlens/pkg/logger"
	"github.com/okian/flowlens/pkg/metrics"
)

// ProjectInput is the already-assembled structure the engine consumes: raw
// per-item histories plus the project's observation window and stage sets.
type ProjectInput struct {
	Label      string
	Items      []model.RawItem
	Horizon    string // RFC3339; parsed per project so one bad horizon stays local
	CFDStates  []string
	DoneStates []string
}

// ProjectSeries is one project's computed output, ready for rendering.
type ProjectSeries struct {
	Label        string
	Stages       []string
	DoneStates   []string
	Series       []model.WeeklyMetrics
	SkippedItems int
}

// RunSummary reports what a run did across all projects.
type RunSummary struct {
	ProjectsProcessed int
	ProjectsFailed    int
	ItemsSkipped      int
}

// Service runs the reconstruction and aggregation pipeline.
type Service struct {
	workerCount int
	now         func() time.Time
	logger      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of per-item worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithNow overrides the clock, pinning "now" for reproducible runs.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("engine")
	}
	return s
}

// Run processes every project and returns the successful series in label
// order. A project-level failure is logged and counted; it never affects
// the other projects' output.
func (s *Service) Run(ctx context.Context, projects []ProjectInput) ([]ProjectSeries, RunSummary) {
	sorted := make([]ProjectInput, len(projects))
	copy(sorted, projects)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	var out []ProjectSeries
	var sum RunSummary
	for _, in := range sorted {
		ps, err := s.ProcessProject(ctx, in)
		if err != nil {
			s.logger.Error(ctx, "project failed", logger.String("project", in.Label), logger.Error(err))
			metrics.RecordProjectFailed()
			sum.ProjectsFailed++
			continue
		}
		metrics.RecordProjectProcessed()
		sum.ProjectsProcessed++
		sum.ItemsSkipped += ps.SkippedItems
		out = append(out, *ps)
	}
	return out, sum
}

// partial is one worker's share of the per-item fan-out.
type partial struct {
	items     []model.Item
	snapshots []model.StageSnapshot
	skipped   int
	events    int
	observed  map[string]struct{}
}

// ProcessProject runs the full pipeline for one project: week grid, per-item
// normalize/reconstruct/sample fanned out across workers, then the
// cross-item reductions once all workers have finished.
func (s *Service) ProcessProject(ctx context.Context, in ProjectInput) (*ProjectSeries, error) {
	if len(in.CFDStates) == 0 {
		return nil, fmt.Errorf("project %s: %w", in.Label, ErrNoTrackedStages)
	}

	horizon, err := time.Parse(time.RFC3339, in.Horizon)
	if err != nil {
		return nil, fmt.Errorf("project %s: horizon %q: %w", in.Label, in.Horizon, weekgrid.ErrInvalidHorizon)
	}
	grid, err := weekgrid.Build(horizon, s.now())
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", in.Label, err)
	}

	if len(in.Items) == 0 {
		s.logger.Warn(ctx, "project has no items; emitting empty series", logger.String("project", in.Label))
	}

	tracked := make(map[string]struct{}, len(in.CFDStates))
	for _, st := range in.CFDStates {
		tracked[st] = struct{}{}
	}
	done := make(map[string]struct{}, len(in.DoneStates))
	for _, st := range in.DoneStates {
		done[st] = struct{}{}
	}

	// Fan out per-item work; each worker owns its partition exclusively and
	// returns immutable results. The Wait below is the barrier before the
	// cross-item reductions.
	chunks := partitionItems(in.Items, s.workerCount)
	results := make([]partial, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			res := partial{observed: make(map[string]struct{})}
			for _, raw := range chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				item, err := normalize.Item(raw)
				if err != nil {
					s.logger.Warn(gctx, "skipping item", logger.String("project", in.Label), logger.Error(err))
					metrics.RecordItemSkipped()
					res.skipped++
					continue
				}
				if len(item.Events) == 0 {
					// No history at all; the item contributes nothing.
					continue
				}
				res.events += len(item.Events)
				for _, ev := range item.Events {
					res.observed[ev.Stage] = struct{}{}
				}
				ivs := interval.Reconstruct(item)
				res.snapshots = append(res.snapshots, sample.Item(grid, horizon, ivs, tracked)...)
				res.items = append(res.items, item)
				metrics.RecordItemProcessed()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("project %s: %w", in.Label, err)
	}

	var items []model.Item
	var snapshots []model.StageSnapshot
	observed := make(map[string]struct{})
	skipped := 0
	normalized := 0
	for _, res := range results {
		items = append(items, res.items...)
		snapshots = append(snapshots, res.snapshots...)
		skipped += res.skipped
		normalized += res.events
		for st := range res.observed {
			observed[st] = struct{}{}
		}
	}
	metrics.RecordEventsNormalized(normalized)

	s.warnUnknownStages(ctx, in, observed)

	stats := aggregate.Reduce(grid, in.CFDStates, snapshots)
	counts := throughput.Count(grid, items, done)

	return &ProjectSeries{
		Label:        in.Label,
		Stages:       in.CFDStates,
		DoneStates:   in.DoneStates,
		Series:       series.Assemble(grid, stats, counts),
		SkippedItems: skipped,
	}, nil
}

// warnUnknownStages surfaces configured stages never observed in any event;
// they would otherwise silently produce all-zero series.
func (s *Service) warnUnknownStages(ctx context.Context, in ProjectInput, observed map[string]struct{}) {
	if len(in.Items) == 0 {
		return
	}
	for _, st := range append(append([]string{}, in.CFDStates...), in.DoneStates...) {
		if _, ok := observed[st]; !ok {
			s.logger.Warn(ctx, "configured stage never observed",
				logger.String("project", in.Label), logger.String("stage", st))
			metrics.RecordUnknownStage()
		}
	}
}

// partitionItems splits items into at most n contiguous chunks.
func partitionItems(items []model.RawItem, n int) [][]model.RawItem {
	if len(items) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	chunks := make([][]model.RawItem, 0, n)
	size := (len(items) + n - 1) / n
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// IsProjectError reports whether err is one of the per-project failures
// that abort a single project's series.
func IsProjectError(err error) bool {
	return errors.Is(err, weekgrid.ErrInvalidHorizon) || errors.Is(err, ErrNoTrackedStages)
}
