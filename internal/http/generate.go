package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/rawbank/siop-reporter/internal/model"
	"github.com/rawbank/siop-reporter/internal/runlock"
)

// generateHandler triggers one pipeline run. The date query param is
// optional DD/MM/YYYY; omitted means today. A manual run for a past
// date behaves exactly like the scheduled run for today.
//
// Per-recipient delivery failures do NOT fail this call: the run is
// reported successful with the failure counts. Only fatal pipeline
// errors produce a failure response.
func generateHandler(runner Runner) echo.HandlerFunc {
	return func(c echo.Context) error {
		date := model.Today()
		if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
			parsed, err := model.ParseReportDate(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"success": false,
					"error":   "invalid date, expected DD/MM/YYYY",
				})
			}
			date = parsed
		}

		res, err := runner.Run(c.Request().Context(), date)
		if err != nil {
			if errors.Is(err, runlock.ErrRunLocked) {
				return c.JSON(http.StatusConflict, map[string]any{
					"success": false,
					"error":   "a run for this date is already in progress",
					"date":    date.String(),
				})
			}

			log.Errorf("report run failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   err.Error(),
				"date":    date.String(),
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success":   true,
			"run_id":    res.RunID,
			"date":      res.Date,
			"records":   res.TotalRecords,
			"skipped":   res.SkippedRecords,
			"bundles":   res.BundleCount,
			"delivered": res.Delivered(),
			"failed":    res.Failed(),
		})
	}
}

func statusHandler() echo.HandlerFunc {
	start := time.Now()
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"application": "siop-reporter",
			"version":     "1.0.0",
			"status":      "RUNNING",
			"uptime_s":    int(time.Since(start).Seconds()),
			"timestamp":   time.Now().UnixMilli(),
		})
	}
}
