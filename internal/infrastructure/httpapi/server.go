package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/ports"
)

// Server exposes the dashboard read API over HTTP.
type Server struct {
	store  ports.Store
	logger *slog.Logger
	echo   *echo.Echo
}

// NewServer builds the echo instance and registers every route.
func NewServer(store ports.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{store: store, logger: logger, echo: e}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.Info("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Error("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/health", s.health)

	api := e.Group("/api")
	api.GET("/dashboard", s.dashboard)
	api.GET("/conversations", s.listConversations)
	api.GET("/conversations/:id", s.getConversation)
	api.GET("/ideas/top", s.topIdeas)
	api.GET("/ideas/pending", s.pendingIdeas)
	api.GET("/ideas/:id", s.getIdea)
	api.POST("/ideas/:id/sent", s.markSent)

	return s
}

// Handler returns the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("dashboard api listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) dashboard(c echo.Context) error {
	summary, err := s.store.GetDashboardSummary(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) listConversations(c echo.Context) error {
	conversations, err := s.store.ListConversations(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, conversations)
}

func (s *Server) getConversation(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	bundle, err := s.store.GetConversationWithIdeas(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, bundle)
}

func (s *Server) topIdeas(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	ideas, err := s.store.ListTopIdeas(c.Request().Context(), limit)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, ideas)
}

func (s *Server) pendingIdeas(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	ideas, err := s.store.ListPendingIdeas(c.Request().Context(), limit)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, ideas)
}

func (s *Server) getIdea(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	idea, err := s.store.GetIdea(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, idea)
}

func (s *Server) markSent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ok, err := s.store.MarkSentToProd(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "idea not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "sent_to_prod": true})
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

// queryLimit returns 0 when absent; the store applies its default.
func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	return limit, nil
}

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
