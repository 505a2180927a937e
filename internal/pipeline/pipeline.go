package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lisaguthrie/sipdashboard/internal/classifier"
	"github.com/lisaguthrie/sipdashboard/internal/config"
	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/goalstore"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/output"
	"github.com/lisaguthrie/sipdashboard/internal/pagegrid"
	"github.com/lisaguthrie/sipdashboard/internal/reconcile"
	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

// Runner executes extraction passes for one configuration.
type Runner struct {
	cfg         *config.Config
	classifiers classifier.Set
	logger      *slog.Logger
	now         func() time.Time
}

// New returns a runner. classifiers decides whether the pass may call out;
// an offline set keeps the run on cached and default values.
func New(cfg *config.Config, classifiers classifier.Set, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:         cfg,
		classifiers: classifiers,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		now:         time.Now,
	}
}

// unitJob is one index entry and where its result goes.
type unitJob struct {
	pos      int
	entry    unitindex.Entry
	provider pagegrid.Provider
	loadErr  error
}

// Run performs a full pass and commits its artifacts.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()
	summary := Summary{RunID: runID, Started: started, Online: r.classifiers.Online}

	idx, err := unitindex.Load(r.cfg.Paths.IndexFile)
	if err != nil {
		return summary, err
	}
	lock, err := output.AcquireLock(r.cfg.Paths.OutputDir)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "", "acquire output lock", r.cfg.Paths.OutputDir, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Debug("release output lock", logging.Error(err))
		}
	}()

	cache := normalize.NewCache(r.cfg.OutputPath(normalize.SnapshotName), r.logger)
	if !cache.Loaded() {
		seeded, err := cache.SeedFromOutput(r.cfg.OutputPath(output.SchoolsName))
		if err != nil {
			logging.WarnWithContext(logger, "previous output not usable as cache seed", "normcache_seed_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "every goal is classified again"),
			)
		}
		summary.Seeded = seeded
	}
	normalizer := normalize.New(cache, r.classifiers.Focus, r.classifiers.Summary, r.logger)

	logger.Info("extraction started",
		logging.Int("units", idx.Len()),
		logging.Int("workers", r.cfg.Extraction.Workers),
		logging.Bool("online", r.classifiers.Online),
		logging.Int("cached_entries", cache.Count()),
	)

	jobs := r.jobs(ctx, idx)
	schools := make([]*goals.School, len(jobs))
	results := make([]UnitResult, len(jobs))
	worker := r.unitWorker(normalizer)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, r.cfg.Extraction.Workers))
	for _, job := range jobs {
		group.Go(func() error {
			school, result := worker(groupCtx, job)
			schools[job.pos] = school
			results[job.pos] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("extraction interrupted: %w", err)
	}

	records := make([]goals.School, 0, len(schools))
	for _, school := range schools {
		if school != nil {
			records = append(records, *school)
		}
	}
	summary.Units = results
	summary.Stats = normalizer.Stats()

	report, err := output.NewWriter(r.cfg.Paths.OutputDir, r.logger).Commit(ctx, records, cache)
	if err != nil {
		return summary, err
	}
	summary.Report = report
	stored, err := goalstore.Export(ctx, filepath.Join(r.cfg.Paths.OutputDir, goalstore.FileName), records)
	if err != nil {
		return summary, fmt.Errorf("export goal store: %w", err)
	}
	summary.Stored = stored
	summary.Duration = r.now().Sub(started)

	logger.Info("extraction finished",
		logging.Int("extracted", len(summary.Extracted())),
		logging.Int("failed", len(summary.Failed())),
		logging.Int("partial", len(summary.Partial())),
		logging.Int("cache_hits", int(summary.Stats.Hits)),
		logging.Int("classifier_calls", int(summary.Stats.Calls)),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// jobs loads one grid provider per bucket and pairs it with each entry.
func (r *Runner) jobs(ctx context.Context, idx *unitindex.Index) []unitJob {
	logger := logging.WithContext(ctx, r.logger)
	providers := map[string]pagegrid.Provider{}
	failures := map[string]error{}
	for _, bucket := range config.Buckets {
		if len(idx.Bucket(bucket)) == 0 {
			continue
		}
		path, ok := r.cfg.GridPath(bucket)
		if !ok {
			failures[bucket] = services.Wrap(services.ErrConfiguration, "", "load grid", fmt.Sprintf("no page-grid dump configured for %s", bucket), nil)
			continue
		}
		provider, err := pagegrid.LoadFile(path)
		if err != nil {
			failures[bucket] = services.Wrap(services.ErrConfiguration, "", "load grid", path, err)
			continue
		}
		providers[bucket] = provider
	}
	for bucket, err := range failures {
		logging.WarnWithContext(logger, "bucket grid unavailable; its units are skipped", "grid_unavailable",
			logging.String(logging.FieldBucket, bucket),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set [documents.grids] "+bucket+" in the config"),
			logging.String(logging.FieldImpact, "no records for this bucket"),
		)
	}

	jobs := make([]unitJob, 0, idx.Len())
	for i, entry := range idx.Entries {
		jobs = append(jobs, unitJob{pos: i, entry: entry, provider: providers[entry.Bucket], loadErr: failures[entry.Bucket]})
	}
	return jobs
}

func (r *Runner) unitWorker(normalizer *normalize.Normalizer) func(context.Context, unitJob) (*goals.School, UnitResult) {
	reconciler := reconcile.New(reconcile.Options{
		Labels:         reconcile.Labels{Sentinels: r.cfg.Extraction.SentinelLabels},
		MaxGoals:       r.cfg.Extraction.MaxGoals,
		StartMarkers:   r.cfg.Extraction.StartMarkers,
		EndMarkers:     r.cfg.Extraction.EndMarkers,
		VerifyUnitName: r.cfg.Extraction.VerifyUnitName,
	}, r.logger)
	assembler := goals.NewAssembler(r.cfg.Extraction.MaxGoals, r.logger)
	allowNetwork := r.classifiers.Online

	return func(ctx context.Context, job unitJob) (school *goals.School, result UnitResult) {
		entry := job.entry
		ctx = services.WithBucket(services.WithUnit(ctx, entry.Name), entry.Bucket)
		logger := logging.WithContext(ctx, r.logger)
		result = UnitResult{Unit: entry.Name, Bucket: entry.Bucket}

		defer func() {
			if rec := recover(); rec != nil {
				logging.ErrorWithContext(logger, "unit processing panicked", "unit_panic",
					logging.Any("panic", rec),
					logging.String("stack", string(debug.Stack())),
				)
				school = nil
				result.Status = StatusFailed
				result.Error = fmt.Sprintf("panic: %v", rec)
			}
		}()

		fail := func(err error) (*goals.School, UnitResult) {
			logging.WarnWithContext(logger, "unit skipped", "unit_failed",
				logging.Error(err),
				logging.String("outcome", string(services.Classify(err))),
				logging.String(logging.FieldImpact, "no record for this school"),
			)
			result.Status = StatusFailed
			result.Error = err.Error()
			return nil, result
		}
		if job.loadErr != nil {
			return fail(job.loadErr)
		}
		if err := entry.Validate(); err != nil {
			return fail(services.Wrap(services.ErrValidation, entry.Name, "validate index entry", "", err))
		}

		rng := reconcile.Range{Unit: entry.Name, Start: entry.Start, End: entry.End}
		res, err := reconciler.Reconcile(ctx, rng, job.provider)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Status = StatusFailed
				result.Error = err.Error()
				return nil, result
			}
			return fail(err)
		}

		assembled := assembler.Assemble(ctx, entry, res.RowSets)
		normalizer.Normalize(ctx, &assembled, allowNetwork)

		result.Status = StatusExtracted
		result.Goals = len(assembled.Goals)
		for _, w := range res.Warnings {
			result.Warnings = append(result.Warnings, w.Error())
		}
		if res.Partial() {
			result.Status = StatusPartial
		}
		logger.Info("unit extracted",
			logging.Int("goals", result.Goals),
			logging.String("status", string(result.Status)),
			logging.Int("first_page", res.FirstPage),
			logging.Int("last_page", res.LastPage),
		)
		return &assembled, result
	}
}
