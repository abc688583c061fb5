// Package api exposes a rig over HTTP
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/use-go/gopro"
	"github.com/use-go/gopro/rig"
)

// Server serves the rig control API and metrics
type Server struct {
	rig    *rig.Rig
	log    zerolog.Logger
	engine *gin.Engine
	srv    *http.Server
}

// New builds the router. A nil rig serves only /metrics and /health, a nil
// registry skips /metrics.
func New(r *rig.Rig, registry *prometheus.Registry, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{rig: r, log: logger, engine: engine}

	engine.GET("/health", s.health)
	if registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	if r == nil {
		return s
	}

	api := engine.Group("/api")
	{
		api.GET("/cameras", s.listCameras)
		api.GET("/cameras/:name/state", s.cameraState)
		api.GET("/cameras/:name/status", s.cameraStatus)
		api.POST("/cameras/:name/power/on", s.cameraAction(func(ctx context.Context, c *gopro.Client) (interface{}, error) {
			return nil, c.PowerOn(ctx)
		}))
		api.POST("/cameras/:name/power/off", s.cameraAction(func(ctx context.Context, c *gopro.Client) (interface{}, error) {
			return nil, c.PowerOff(ctx)
		}))
		api.POST("/cameras/:name/record/start", s.cameraAction(func(ctx context.Context, c *gopro.Client) (interface{}, error) {
			return nil, c.StartRecording(ctx)
		}))
		api.POST("/cameras/:name/record/stop", s.cameraAction(func(ctx context.Context, c *gopro.Client) (interface{}, error) {
			result, err := c.StopRecording(ctx)
			return gin.H{"stop": result.String()}, err
		}))
	}

	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Annotate(err, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Annotate(s.srv.Shutdown(shutdownCtx), "shutdown")
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listCameras(c *gin.Context) {
	type camera struct {
		Name   string `json:"name"`
		Serial string `json:"serial"`
		URL    string `json:"url"`
	}

	cameras := make([]camera, 0)
	for _, cam := range s.rig.Cameras() {
		cameras = append(cameras, camera{
			Name:   cam.Name,
			Serial: cam.Client.Serial(),
			URL:    cam.Client.BaseURL(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"cameras": cameras})
}

func (s *Server) lookup(c *gin.Context) (*gopro.Client, bool) {
	cam, ok := s.rig.Camera(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
		return nil, false
	}
	return cam.Client, true
}

func (s *Server) cameraState(c *gin.Context) {
	client, ok := s.lookup(c)
	if !ok {
		return
	}
	state, err := client.GetState(c.Request.Context())
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) cameraStatus(c *gin.Context) {
	client, ok := s.lookup(c)
	if !ok {
		return
	}
	state, err := client.GetState(c.Request.Context())
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gopro.NewStatusReport(client.Serial(), state, time.Now()))
}

func (s *Server) cameraAction(fn func(context.Context, *gopro.Client) (interface{}, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := s.lookup(c)
		if !ok {
			return
		}
		body, err := fn(c.Request.Context(), client)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		if body == nil {
			body = gin.H{"ok": true}
		}
		c.JSON(http.StatusOK, body)
	}
}

// errorStatus maps a camera failure to the status returned to API callers
func errorStatus(err error) int {
	switch {
	case gopro.IsRejected(err):
		return http.StatusConflict
	case errors.Is(err, gopro.ErrNotRecording):
		return http.StatusConflict
	case gopro.StatusCode(err) != 0:
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}
