package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rawbank/siop-reporter/internal/config"
	"github.com/rawbank/siop-reporter/internal/logger"
	"github.com/rawbank/siop-reporter/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the report pipeline on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		defer logger.Sync()

		if !cfg.Scheduler.Enabled {
			return fmt.Errorf("scheduler is disabled in config")
		}

		p, cleanup, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		sched, err := scheduler.New(cfg.Scheduler.Cron, p, logger.L())
		if err != nil {
			return fmt.Errorf("cron %q: %w", cfg.Scheduler.Cron, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf(">> scheduler started cron=%q", cfg.Scheduler.Cron)
		sched.Start(ctx)

		return nil
	},
}
