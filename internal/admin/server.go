package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/gemctl/internal/auth"
	"github.com/danmuck/gemctl/internal/gemini"
	"github.com/danmuck/gemctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

// Registry is the live view of the Gemini server exposed over HTTP.
type Registry interface {
	Addr() net.Addr
	Connections() []gemini.ConnInfo
	ActiveApplications() int
}

// Config selects where the admin surface listens and who may read it. An empty
// Token leaves every route open.
type Config struct {
	ID          string
	Addr        string
	CorsOrigins []string
	Token       string
}

// Server is the admin HTTP surface: health, readiness, metrics and the
// connection registry.
type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	router   *gin.Engine
	registry Registry
	auth     auth.Validator
	logger   zerolog.Logger
}

func New(cfg Config, registry Registry, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	logger = logger.With().Str("component", "admin").Logger()
	id := cfg.ID
	if id == "" {
		id = "gemctl"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observeRequests(id, logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       id,
		Addr:     cfg.Addr,
		Appeared: time.Now(),
		router:   r,
		registry: registry,
		logger:   logger,
	}
	if cfg.Token != "" {
		s.auth = auth.SharedToken(cfg.Token)
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		addr := s.registry.Addr()
		if addr == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":   false,
				"service": s.ID,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"listen":  addr.String(),
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/connections", s.requireToken(), func(c *gin.Context) {
		conns := s.registry.Connections()
		c.JSON(http.StatusOK, gin.H{
			"active":      s.registry.ActiveApplications(),
			"connections": conns,
		})
	})
}

// requireToken guards a route with the configured bearer token, if any.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.auth == nil {
			c.Next()
			return
		}
		if err := auth.Check(s.auth, c.GetHeader("Authorization")); err != nil {
			c.Set(authOutcomeKey, authDenied)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(authOutcomeKey, authOK)
		c.Next()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr).Msg("admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
