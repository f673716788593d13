// Package scheduler drives the pipeline from a cron expression,
// replacing the system crontab the report used to run under. Each tick
// runs today's date; a failed tick is logged and never stops the loop.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rawbank/siop-reporter/internal/model"
)

// Runner matches pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, date model.ReportDate) (model.RunResult, error)
}

// tickTimeout bounds one scheduled run so a hung query cannot pile
// ticks up behind it.
const tickTimeout = 10 * time.Minute

type Scheduler struct {
	c      *cron.Cron
	runner Runner
	log    *zap.Logger
}

// New builds a scheduler from a standard 5-field cron expression.
func New(spec string, runner Runner, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		c:      cron.New(),
		runner: runner,
		log:    log,
	}
	if _, err := s.c.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	date := model.Today()
	res, err := s.runner.Run(ctx, date)
	if err != nil {
		s.log.Error("scheduled run failed", zap.String("date", date.String()), zap.Error(err))
		return
	}

	s.log.Info("scheduled run finished",
		zap.String("run_id", res.RunID),
		zap.String("date", res.Date),
		zap.Int("records", res.TotalRecords),
		zap.Int("bundles", res.BundleCount),
		zap.Int("delivered", res.Delivered()),
		zap.Int("failed", res.Failed()),
	)
}

// Start launches the cron loop and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.c.Start()
	<-ctx.Done()

	stopCtx := s.c.Stop()
	<-stopCtx.Done()
}
