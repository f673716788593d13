package http

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rawbank/siop-reporter/internal/metrics"
	"github.com/rawbank/siop-reporter/internal/model"
)

// Runner is the trigger-side view of the pipeline.
type Runner interface {
	Run(ctx context.Context, date model.ReportDate) (model.RunResult, error)
}

type Server struct{ e *echo.Echo }

func NewServer(runner Runner) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	v1 := e.Group("/v1")
	v1.POST("/reports/generate", generateHandler(runner))
	v1.GET("/status", statusHandler())

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
