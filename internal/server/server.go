// Package server exposes the chat and embed flows over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/metrics"
	"portfolio-rag/internal/models"
	"portfolio-rag/internal/rag"
)

type Server struct {
	echo            *echo.Echo
	chat            *rag.Chat
	pipeline        *rag.Pipeline
	metrics         *metrics.Metrics
	embedSecret     string
	addr            string
	shutdownTimeout time.Duration
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// New builds the HTTP server. m may be nil, in which case /metrics is not
// mounted.
func New(cfg *config.Config, chat *rag.Chat, pipeline *rag.Pipeline, m *metrics.Metrics) *Server {
	s := &Server{
		echo:            echo.New(),
		chat:            chat,
		pipeline:        pipeline,
		metrics:         m,
		embedSecret:     cfg.Embed.Secret,
		addr:            cfg.Server.Addr,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(accessLog())

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, headerEmbedSecret},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	api := e.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/embed", s.handleEmbed)
	return s
}

// Handler returns the router, for tests and embedding in other servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("HTTP server listening")
		errCh <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", s.shutdownTimeout).Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := models.MsgInternal
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch code {
		case http.StatusMethodNotAllowed:
			msg = models.MsgMethodNotAllowed
		case http.StatusInternalServerError:
		default:
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
	}

	req := c.Request()
	ev := log.Warn()
	if code >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).
		Int("status", code).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("HTTP error")

	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}

func accessLog() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("client", ClientIP(c.Request())).
				Msg("request")
			return nil
		},
	})
}

// ClientIP identifies the caller for rate limiting: the first
// X-Forwarded-For entry, then the peer address, then "unknown".
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
