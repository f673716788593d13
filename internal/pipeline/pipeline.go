// Package pipeline sequences one report run: extract the day's
// operations, group them per manager, and hand every bundle to the
// dispatcher.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rawbank/siop-reporter/internal/metrics"
	"github.com/rawbank/siop-reporter/internal/model"
	"github.com/rawbank/siop-reporter/internal/report"
	"github.com/rawbank/siop-reporter/internal/util"
)

// PipelineError wraps any fatal upstream failure for the trigger.
// Per-recipient delivery failures never take this path; they only
// degrade the RunResult.
type PipelineError struct {
	Date string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("report run for %s: %v", e.Date, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Extractor is the query boundary (see repository.OperationsRepository).
type Extractor interface {
	Extract(ctx context.Context, date model.ReportDate) ([]model.TransactionRecord, error)
}

// Deliverer sends every bundle exactly once, isolating failures.
type Deliverer interface {
	DeliverAll(ctx context.Context, bundles map[string]*model.RecipientBundle, date model.ReportDate) []model.DeliveryOutcome
}

// RunLock is the optional per-date mutual exclusion extension point.
type RunLock interface {
	Acquire(ctx context.Context, date model.ReportDate) error
	Release(ctx context.Context, date model.ReportDate)
}

// EventPublisher optionally emits the run summary after each run.
type EventPublisher interface {
	PublishRunResult(ctx context.Context, res model.RunResult) error
}

type Options struct {
	Lock   RunLock        // nil = no mutual exclusion between runs
	Events EventPublisher // nil = no outcome events
	Logger *zap.Logger
}

type Pipeline struct {
	extractor Extractor
	deliverer Deliverer
	lock      RunLock
	events    EventPublisher
	log       *zap.Logger
}

func New(extractor Extractor, deliverer Deliverer, opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		extractor: extractor,
		deliverer: deliverer,
		lock:      opts.Lock,
		events:    opts.Events,
		log:       log,
	}
}

// Run executes one report cycle for date. An empty extraction is a
// valid zero-bundle result. Running the same date twice sends every
// mail again: the pipeline keeps no memory of prior runs.
func (p *Pipeline) Run(ctx context.Context, date model.ReportDate) (model.RunResult, error) {
	res := model.RunResult{
		RunID: util.NewRunID(),
		Date:  date.String(),
	}

	log := p.log.With(zap.String("run_id", res.RunID), zap.String("date", res.Date))
	log.Info("report run starting")

	if p.lock != nil {
		if err := p.lock.Acquire(ctx, date); err != nil {
			metrics.RunsTotal.WithLabelValues("failed").Inc()
			return res, &PipelineError{Date: res.Date, Err: err}
		}
		defer p.lock.Release(ctx, date)
	}

	records, err := p.extractor.Extract(ctx, date)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		log.Error("extraction failed", zap.Error(err))
		return res, &PipelineError{Date: res.Date, Err: err}
	}

	res.TotalRecords = len(records)
	metrics.RecordsExtracted.Add(float64(len(records)))

	if len(records) == 0 {
		metrics.RunsTotal.WithLabelValues("empty").Inc()
		log.Info("no operations found, nothing to deliver")
		p.publish(ctx, res, log)
		return res, nil
	}

	bundles := report.Group(records)
	res.BundleCount = len(bundles)

	grouped := 0
	for _, b := range bundles {
		grouped += b.Count
	}
	res.SkippedRecords = res.TotalRecords - grouped

	log.Info("operations grouped",
		zap.Int("records", res.TotalRecords),
		zap.Int("bundles", res.BundleCount),
		zap.Int("skipped", res.SkippedRecords),
	)

	res.Outcomes = p.deliverer.DeliverAll(ctx, bundles, date)

	metrics.RunsTotal.WithLabelValues("ok").Inc()
	log.Info("report run finished",
		zap.Int("delivered", res.Delivered()),
		zap.Int("failed", res.Failed()),
	)

	p.publish(ctx, res, log)
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, res model.RunResult, log *zap.Logger) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishRunResult(ctx, res); err != nil {
		log.Warn("run event publish failed", zap.Error(err))
	}
}
