package cmd

import (
	"fmt"

	"github.com/rawbank/siop-reporter/internal/config"
	"github.com/rawbank/siop-reporter/internal/db"
	"github.com/rawbank/siop-reporter/internal/dispatcher"
	"github.com/rawbank/siop-reporter/internal/events"
	"github.com/rawbank/siop-reporter/internal/logger"
	"github.com/rawbank/siop-reporter/internal/mailer"
	"github.com/rawbank/siop-reporter/internal/pipeline"
	"github.com/rawbank/siop-reporter/internal/report"
	"github.com/rawbank/siop-reporter/internal/repository"
	"github.com/rawbank/siop-reporter/internal/runlock"
)

// buildPipeline wires every dependency the pipeline needs from config.
// The returned cleanup closes connections in reverse open order.
func buildPipeline(cfg config.Config) (*pipeline.Pipeline, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	dbx, err := db.NewMySQLConnection(cfg.MySQL)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connect: %w", err)
	}
	closers = append(closers, func() { _ = dbx.Close() })

	repo, err := repository.NewOperationsRepository(dbx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("operations repository: %w", err)
	}

	sender := mailer.NewSMTPSender(cfg.SMTP)
	disp := dispatcher.New(report.Render, sender, dispatcher.Config{
		WorkerCount:     cfg.Dispatcher.WorkerCount,
		Cc:              cfg.Report.Cc,
		SubjectTemplate: cfg.Report.Subject,
	}, logger.L())

	opts := pipeline.Options{Logger: logger.L()}

	if cfg.RunLock.Enabled {
		rdb, err := db.NewRedisClient(cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		opts.Lock = runlock.New(rdb, cfg.RunLock.TTL)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, func() { _ = pub.Close() })
		opts.Events = pub
	}

	return pipeline.New(repo, disp, opts), cleanup, nil
}
