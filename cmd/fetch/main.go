package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/okian/flowlens/internal/adapters/asana"
	"github.com/okian/flowlens/internal/adapters/source"
	"github.com/okian/flowlens/internal/config"
	"github.com/okian/flowlens/pkg/logger"
	"github.com/okian/flowlens/pkg/metrics"
)

// HTTP server timeout constants for the optional metrics listener.
const (
	readHeaderTimeout = 5 * time.Second
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (default: $FLOWLENS_CONFIG)")
		tokenFile  = flag.String("token-file", "", "file containing a personal access token")
		outputFile = flag.String("output", "", "snapshot output file (overrides snapshot_file)")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *tokenFile, *outputFile, *verbose); err != nil {
		logger.Get().Error(ctx, "fetch failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, tokenFile, outputFile string, verbose bool) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	if outputFile == "" {
		outputFile = cfg.SnapshotFile
	}
	if tokenFile == "" {
		return fmt.Errorf("flag -token-file must be specified")
	}

	token, err := os.ReadFile(tokenFile)
	if err != nil {
		return fmt.Errorf("reading token file: %w", err)
	}

	log := logger.Get().Named("fetch")
	log.Info(ctx, "starting fetch",
		logger.String("run_id", uuid.NewString()),
		logger.Int("projects", len(cfg.Projects)))

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, log)
	}

	// Projects with unparsable horizons are skipped, not fatal for the rest.
	labels := make([]string, 0, len(cfg.Projects))
	for label := range cfg.Projects {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	reqs := make([]asana.ProjectRequest, 0, len(labels))
	for _, label := range labels {
		p := cfg.Projects[label]
		horizon, err := time.Parse(time.RFC3339, p.Horizon)
		if err != nil {
			log.Error(ctx, "skipping project with bad horizon",
				logger.String("project", label), logger.String("horizon", p.Horizon))
			continue
		}
		reqs = append(reqs, asana.ProjectRequest{GID: p.GID, Horizon: horizon})
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no fetchable projects configured")
	}

	client := asana.New(strings.TrimSpace(string(token)), asana.WithLogger(log))
	snap, err := client.FetchAll(ctx, reqs)
	if err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	if err := source.Save(outputFile, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	log.Info(ctx, "wrote snapshot",
		logger.String("output", outputFile),
		logger.Int("tasks", len(snap.Tasks)))
	return nil
}

func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics listener stopped", logger.Error(err))
	}
}
