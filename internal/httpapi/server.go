// Package httpapi exposes the onboarding repository and adverse media
// screening over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/internal/observability"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/screening"
	"github.com/stampedhq/onboard/pkg/models"
)

// Screener runs adverse media searches.
// Defined here so tests can substitute a fake.
type Screener interface {
	Screen(ctx context.Context, req screening.Request) (*models.ScreeningResult, error)
}

// Deps wires a Server. Screener, Bus and Alerts may be nil; their routes
// then answer 503.
type Deps struct {
	Repo     core.Repository
	Screener Screener
	Bus      *realtime.Bus
	Alerts   observability.AlertEngine
	Logger   zerolog.Logger
}

// Server is the HTTP surface.
type Server struct {
	echo     *echo.Echo
	repo     core.Repository
	screener Screener
	bus      *realtime.Bus
	alerts   observability.AlertEngine
	logger   zerolog.Logger
}

// NewServer creates a Server with every route registered.
func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		repo:     deps.Repo,
		screener: deps.Screener,
		bus:      deps.Bus,
		alerts:   deps.Alerts,
		logger:   deps.Logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	api := s.echo.Group("/api")
	api.POST("/adverse-media", s.screenAdverseMedia)

	api.GET("/leads", s.listLeads)
	api.POST("/leads", s.createLead)
	api.GET("/leads/:id", s.getLead)
	api.PATCH("/leads/:id", s.updateLead)

	api.GET("/clients", s.listClients)
	api.POST("/clients/:id/lifecycle", s.transitionClient)

	api.GET("/documents", s.listDocuments)
	api.POST("/documents", s.uploadDocument)
	api.POST("/documents/:id/status", s.updateDocumentStatus)

	api.GET("/conversations", s.listConversations)
	api.GET("/conversations/:id/messages", s.listMessages)
	api.POST("/messages", s.sendMessage)

	api.GET("/stats/leads", s.leadStatistics)
	api.GET("/stats/documents", s.documentStatistics)
	api.GET("/events", s.listEvents)
	api.GET("/alerts", s.listAlerts)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("http server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// errorStatus maps repository errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("uri", c.Request().URL.Path).Msg("request failed")
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func unavailable(c echo.Context, what string) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": what + " is not configured"})
}
