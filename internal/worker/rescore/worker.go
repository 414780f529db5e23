// Package rescore repairs drift between the vote ledgers and the values stored on items.
package rescore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/worker/core"
	"github.com/robalyx/zoonas/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const workerType = "rescore"

// Report summarizes a single maintenance pass.
type Report struct {
	Zones    int
	Items    map[enum.ItemKind]int
	Skipped  int
	Duration time.Duration
}

// Options tunes a Worker.
type Options struct {
	BatchSize   int
	Concurrency int
	Interval    time.Duration
}

// Worker recounts zone sizes and recomputes item scores from their ledgers.
type Worker struct {
	db       database.Client
	reporter *core.StatusReporter
	opts     Options
	logger   *zap.Logger
}

// New creates a rescore worker. monitor may be nil when status reporting is not wanted.
func New(db database.Client, monitor *core.Monitor, opts Options, logger *zap.Logger) *Worker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}

	logger = logger.Named("rescore_worker")

	return &Worker{
		db:       db,
		reporter: core.NewStatusReporter(monitor, workerType, logger),
		opts:     opts,
		logger:   logger,
	}
}

// Start runs a pass every interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Rescore worker started", zap.String("workerID", w.reporter.GetWorkerID()))
	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		report, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			w.logger.Error("Rescore pass failed", zap.Error(err))
			w.reporter.SetHealthy(false)
		} else {
			w.reporter.SetHealthy(true)
			w.logger.Info("Rescore pass completed",
				zap.Int("zones", report.Zones),
				zap.Any("items", report.Items),
				zap.Int("skipped", report.Skipped),
				zap.Duration("duration", report.Duration))
		}

		w.reporter.UpdateStatus("Waiting for next pass", 100)
		if utils.ContextSleep(ctx, w.opts.Interval) == utils.SleepCancelled {
			return
		}
	}
}

// RunOnce recounts every zone and then recomputes every votable in batches.
func (w *Worker) RunOnce(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{Items: make(map[enum.ItemKind]int, len(enum.ItemKinds))}

	w.reporter.UpdateStatus("Recounting zone sizes", 0)

	zones, err := w.recountZones(ctx)
	if err != nil {
		return nil, err
	}
	report.Zones = zones

	for i, kind := range enum.ItemKinds {
		w.reporter.UpdateStatus("Recomputing "+kind.String()+" scores", 10+80*i/len(enum.ItemKinds))

		count, skipped, err := w.recomputeKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		report.Items[kind] = count
		report.Skipped += skipped
	}

	report.Duration = time.Since(start)
	w.reporter.UpdateStatus("Pass completed", 100)
	w.reporter.Flush(ctx)

	return report, nil
}

// recountZones sets every zone's size from its subscription rows.
func (w *Worker) recountZones(ctx context.Context) (int, error) {
	var afterID int64
	total := 0

	for {
		ids, err := w.db.Model().Zone().GetZoneIDs(ctx, afterID, w.opts.BatchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		p := pool.New().WithMaxGoroutines(w.opts.Concurrency).WithContext(ctx)
		for _, id := range ids {
			p.Go(func(ctx context.Context) error {
				if _, err := w.db.Model().Zone().RecountSize(ctx, id); err != nil && !errors.Is(err, types.ErrZoneNotFound) {
					return fmt.Errorf("zone %d: %w", id, err)
				}
				return nil
			})
		}

		if err := p.Wait(); err != nil {
			return total, err
		}

		total += len(ids)
		afterID = ids[len(ids)-1]
	}
}

// recomputeKind recomputes every item of one kind, each in its own transaction.
func (w *Worker) recomputeKind(ctx context.Context, kind enum.ItemKind) (int, int, error) {
	var (
		afterID int64
		total   int
		skipped atomic.Int64
	)

	for {
		ids, err := w.db.Model().Item().GetItemIDs(ctx, kind, afterID, w.opts.BatchSize)
		if err != nil {
			return total, int(skipped.Load()), err
		}
		if len(ids) == 0 {
			return total, int(skipped.Load()), nil
		}

		p := pool.New().WithMaxGoroutines(w.opts.Concurrency).WithContext(ctx)
		for _, id := range ids {
			p.Go(func(ctx context.Context) error {
				_, err := w.db.Service().Vote().RecomputeScores(ctx, kind, id)
				switch {
				case err == nil:
					return nil
				case errors.Is(err, types.ErrItemNotFound):
					// Removed since the page was read
					skipped.Add(1)
					return nil
				default:
					return fmt.Errorf("%s %d: %w", kind, id, err)
				}
			})
		}

		if err := p.Wait(); err != nil {
			return total, int(skipped.Load()), err
		}

		total += len(ids)
		afterID = ids[len(ids)-1]
	}
}
