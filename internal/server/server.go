// File: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rfalmeida/detranbridge/internal/config"
	"github.com/rfalmeida/detranbridge/internal/portal"
)

// RegistryClient is the query surface the HTTP handlers sit on top of.
// *portal.Client satisfies it.
type RegistryClient interface {
	LookupChassisStatus(ctx context.Context, chassis string) (portal.Record, error)
	LookupBin(ctx context.Context, key string, keyType portal.BinKeyType) (portal.Record, error)
	LookupVehiclesByDocument(ctx context.Context, document string) ([]portal.Record, error)
}

// Server is the HTTP front door for registry queries.
type Server struct {
	e       *echo.Echo
	logger  *zap.Logger
	cfg     config.ServerConfig
	client  RegistryClient
	metrics *Metrics
}

// New builds the echo application with all routes registered.
func New(logger *zap.Logger, cfg config.ServerConfig, client RegistryClient) *Server {
	s := &Server{
		logger: logger.Named("server"),
		cfg:    cfg,
		client: client,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.metrics = NewMetrics(reg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/", s.heartbeat)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	e.GET("/chassis", s.getChassis)
	e.GET("/bin", s.getBin)
	e.GET("/vehicles", s.getVehicles)

	s.e = e
	return s
}

// Start serves until ctx is canceled, then drains connections within the
// configured shutdown window.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(s.cfg.Listen)
	}()
	s.logger.Info("HTTP server listening.", zap.String("addr", s.cfg.Listen))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := "INTERNAL_ERROR"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	s.logger.Warn("Request failed.",
		zap.Int("status", code),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"message": msg})
	}
}
