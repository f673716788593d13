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
	"github.com/rawbank/siop-reporter/internal/model"
)

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the report pipeline once for a date (default: today)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		defer logger.Sync()

		date := model.Today()
		if runDate != "" {
			date, err = model.ParseReportDate(runDate)
			if err != nil {
				return err
			}
		}

		p, cleanup, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := p.Run(ctx, date)
		if err != nil {
			return err
		}

		log.Printf("run %s date=%s records=%d skipped=%d bundles=%d delivered=%d failed=%d",
			res.RunID, res.Date, res.TotalRecords, res.SkippedRecords,
			res.BundleCount, res.Delivered(), res.Failed())

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "target date (DD/MM/YYYY); defaults to today")
}
