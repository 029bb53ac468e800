package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"leadscout/internal/auth"
	"leadscout/internal/db"
	"leadscout/internal/globaltime"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	APITokenHash    string
	AllowedOrigins  []string
}

type Server struct {
	pool   *db.Pool
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		pool:   pool,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			APITokenHash:    strings.TrimSpace(opts.APITokenHash),
			AllowedOrigins:  origins,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("leadscout api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("leadscout api server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)

	protected := api.Group("", s.bearerAuth)
	protected.GET("/stats", s.handleStats)
	protected.GET("/businesses", s.handleBusinesses)
	protected.GET("/businesses/:business_uuid", s.handleBusinessDetail)

	return e
}

// bearerAuth checks the Authorization header against the configured
// token hash. With no hash configured the API is open, which is only
// intended for local use.
func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.opts.APITokenHash == "" {
			return next(c)
		}

		header := strings.TrimSpace(c.Request().Header.Get("Authorization"))
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return failUnauthorized(c, "Missing bearer token")
		}
		if !auth.VerifyToken(strings.TrimSpace(token), s.opts.APITokenHash) {
			return failUnauthorized(c, "Invalid bearer token")
		}
		return next(c)
	}
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "leadscout",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	now := globaltime.UTC()
	dayStart := now.Add(-24 * time.Hour)

	stats, err := s.pool.QueryDiscoveryStats(c.Request().Context(), dayStart, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleBusinesses(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultListLimit, 1, maxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	minScore, err := parsePositiveInt(c.QueryParam("min_score"), 0, 0, 100)
	if err != nil {
		return failValidation(c, map[string]string{"min_score": err.Error()})
	}

	filter := db.BusinessFilter{
		Platform: strings.TrimSpace(c.QueryParam("platform")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Priority: strings.TrimSpace(c.QueryParam("priority")),
		MinScore: minScore,
		Limit:    limit,
	}

	rows, err := s.pool.ListBusinesses(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("query businesses failed")
		return internalError(c, "Failed to load businesses")
	}

	return success(c, map[string]any{
		"items": rows,
		"filters": map[string]any{
			"platform":  filter.Platform,
			"category":  filter.Category,
			"priority":  filter.Priority,
			"min_score": filter.MinScore,
			"limit":     filter.Limit,
		},
	})
}

func (s *Server) handleBusinessDetail(c echo.Context) error {
	businessUUID := strings.TrimSpace(c.Param("business_uuid"))
	if businessUUID == "" {
		return failValidation(c, map[string]string{"business_uuid": "is required"})
	}

	row, err := s.pool.GetBusiness(c.Request().Context(), businessUUID)
	if err != nil {
		s.logger.Error().Err(err).Str("business_uuid", businessUUID).Msg("query business failed")
		return internalError(c, "Failed to load business")
	}
	if row == nil {
		return failNotFound(c, "Business not found")
	}
	return success(c, row)
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return def, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < min || value > max {
		return 0, fmt.Errorf("must be between %d and %d", min, max)
	}
	return value, nil
}
