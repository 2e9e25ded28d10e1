// Package httpserver is the operational HTTP surface of the agent: liveness,
// readiness, the live room snapshot and Prometheus metrics. The agent has no
// domain REST API; commands arrive through the chat transport.
package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/config"
	"github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/interfaces/httpserver/middlewares"
)

// HTTPServer is the ops HTTP server.
type HTTPServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// New creates a new ops HTTP server.
func New(cfg *config.Config, log zerolog.Logger, rooms room.Store) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.Use(middlewares.RequestID())
	engine.Use(middlewares.Tracing(cfg.ServiceName))
	engine.Use(middlewares.RequestLogger(log))

	registerRoutes(engine, cfg, rooms)

	return &HTTPServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
	}
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerRoutes(engine *gin.Engine, cfg *config.Config, rooms room.Store) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"status":  "ok",
		})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Snapshot of the live subscriptions, for operators chasing a stuck run.
	engine.GET("/rooms", func(c *gin.Context) {
		records, err := rooms.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
			return
		}

		items := make([]gin.H, 0, len(records))
		for _, record := range records {
			items = append(items, gin.H{
				"target":   record.Address.String(),
				"status":   record.Payload.Status,
				"progress": record.Payload.Progress,
				"eta":      record.Payload.ETA,
			})
		}
		c.JSON(http.StatusOK, gin.H{"rooms": items, "count": len(items)})
	})

	// Prometheus metrics endpoint
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
