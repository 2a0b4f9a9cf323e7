package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/oplogtools/logquery/internal/config"
	"github.com/oplogtools/logquery/internal/discover"
	"github.com/oplogtools/logquery/internal/logging"
	"github.com/oplogtools/logquery/internal/match"
	"github.com/oplogtools/logquery/internal/monitoring"
	"github.com/oplogtools/logquery/internal/output"
	"github.com/oplogtools/logquery/internal/pipeline"
	"github.com/oplogtools/logquery/internal/scan"
)

// App runs the configured query tasks.
type App struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics
	decoder *scan.Decoder
}

// New builds the shared matchers and decoder. An unparseable IP rule is a
// fatal configuration error surfaced here, before anything runs.
func New(cfg *config.Config, log *logging.Logger) (*App, error) {
	ips, err := match.NewIPMatcher(cfg.SourceIPs)
	if err != nil {
		return nil, fmt.Errorf("failed to build IP matcher: %w", err)
	}
	domains := match.NewDomainMatcher(cfg.QueryDomains)

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: monitoring.New(),
		decoder: scan.NewDecoder(scan.NewFilter(ips, domains)),
	}, nil
}

// Run executes the aggregated task, then the native task when enabled,
// and reports total elapsed time. Task errors are collected, not
// short-circuited.
func (a *App) Run() error {
	start := time.Now()
	if a.cfg.MetricsAddr != "" {
		a.metrics.Serve(a.cfg.MetricsAddr, a.log)
	}

	var errs []error
	if err := a.runTask("aggregated", scan.Aggregated, a.cfg.LogDirectory,
		a.cfg.AggregatedLogResultLoc, discover.Substring); err != nil {
		a.log.Error("aggregated task failed", zap.Error(err))
		errs = append(errs, err)
	}

	if a.cfg.NativeLogEnabled() {
		if err := a.runTask("native", scan.Native, a.cfg.NativeLogLoc,
			a.cfg.NativeLogResultLoc, discover.NativeTimestamp); err != nil {
			a.log.Error("native task failed", zap.Error(err))
			errs = append(errs, err)
		}
	} else {
		a.log.Info("native log query disabled, skipping task")
	}

	a.log.Info("all tasks finished", zap.Duration("elapsed", time.Since(start)))
	return errors.Join(errs...)
}

func (a *App) runTask(name string, schema scan.Schema, root, resultBase string, accept discover.Accept) error {
	log := a.log.With(zap.String("task", name))
	log.Info("task starting", zap.String("root", root))

	files, err := discover.Find(root, ".gz", a.cfg.TimePrefixes(), accept)
	if err != nil {
		return fmt.Errorf("file discovery failed: %w", err)
	}
	if len(files) == 0 {
		log.Info("no matching files found")
		return nil
	}
	log.Info("files discovered", zap.Int("count", len(files)))

	outPath := output.FilePath(resultBase, a.cfg.QueryDomains, a.cfg.SourceIPs, a.cfg.FirstDay(), name)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	res, err := pipeline.Run(pipeline.Task{
		Name:       name,
		Schema:     schema,
		Files:      files,
		OutputPath: outPath,
	}, a.decoder, pipeline.Options{
		Workers: a.cfg.WorkerPoolSize,
		CoreIDs: a.cfg.WorkerCoreIDs,
		Log:     a.log,
		Metrics: a.metrics,
	})
	if err != nil {
		return err
	}

	log.Info("task complete",
		zap.Int64("records", res.Matched),
		zap.String("output", outPath),
		zap.Duration("elapsed", res.Elapsed))
	return nil
}
