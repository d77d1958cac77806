// Package httpdisplay serves the live depth preview over HTTP.
//
// Routes:
//
//	GET /              viewer page
//	GET /stream.mjpg   multipart MJPEG stream, one part per new frame
//	GET /snapshot.jpg  the latest preview image
//	GET /api/stats     pipeline statistics as JSON
//	GET /healthz       liveness probe
//	GET /metrics       Prometheus metrics
package httpdisplay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/depthshow/pkg/adapters/pacer"
	"github.com/user/depthshow/pkg/metrics"
	"github.com/user/depthshow/pkg/ports"
	"github.com/user/depthshow/pkg/preview"
)

const boundary = "depthframe"

// Options configures the server.
type Options struct {
	// MaxFPS caps the frame rate of each MJPEG stream. Zero sends every frame.
	MaxFPS float64

	// Stats returns the value served by /api/stats.
	Stats func() any

	// Version is reported by /healthz.
	Version string
}

// Server is the preview HTTP server.
type Server struct {
	composer *preview.Composer
	metrics  *metrics.Metrics
	opts     Options
	logger   ports.Logger
	router   *gin.Engine
	started  time.Time
}

// New creates a preview server. m may be nil.
func New(composer *preview.Composer, m *metrics.Metrics, opts Options, logger ports.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		composer: composer,
		metrics:  m,
		opts:     opts,
		logger:   logger.WithComponent("http"),
		started:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleIndex)
	router.GET("/stream.mjpg", s.handleStream)
	router.GET("/snapshot.jpg", s.handleSnapshot)
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/stats", s.handleStats)
	}

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router = router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Preview available at http://%s/", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Debug("Preview server stopped")
	return nil
}

// requestLogger logs requests at debug level and records them in metrics.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		s.logger.Debug("%s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(path, status)
		}
	}
}

// Handler implementations

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"frame":   s.composer.Presenter().Seq(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	if s.opts.Stats == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.opts.Stats())
}

func (s *Server) handleSnapshot(c *gin.Context) {
	img, ok, err := s.composer.Latest(c.Request.Context())
	if err != nil {
		s.logger.Warn("Failed to render preview: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render preview"})
		return
	}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame available yet"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame-Seq", fmt.Sprint(img.Info.Seq))
	c.Data(http.StatusOK, img.ContentType(), img.Data)
	if s.metrics != nil {
		s.metrics.RecordPreviewFrame()
	}
}

// handleStream writes one multipart part per presented frame until the
// client goes away or the presenter is closed.
func (s *Server) handleStream(c *gin.Context) {
	ctx := c.Request.Context()
	presenter := s.composer.Presenter()
	limiter := pacer.New(s.opts.MaxFPS)

	if s.metrics != nil {
		s.metrics.RecordClientConnected()
		defer s.metrics.RecordClientDisconnected()
	}
	s.logger.Debug("Stream client connected: %s", c.ClientIP())

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	c.Header("Cache-Control", "no-store")
	c.Header("Connection", "close")
	c.Status(http.StatusOK)

	var lastSeq uint64
	c.Stream(func(w io.Writer) bool {
		// wait for a frame newer than the last one sent
		for presenter.Seq() == lastSeq {
			updated := presenter.Updated()
			if presenter.Closed() {
				return false
			}
			if presenter.Seq() != lastSeq {
				break
			}
			select {
			case <-ctx.Done():
				return false
			case <-updated:
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return false
		}

		img, ok, err := s.composer.Latest(ctx)
		if err != nil {
			s.logger.Warn("Failed to render preview: %s", err.Error())
			return false
		}
		if !ok {
			return true
		}
		lastSeq = img.Info.Seq

		if err := writePart(w, img); err != nil {
			return false
		}
		if s.metrics != nil {
			s.metrics.RecordPreviewFrame()
		}
		return true
	})

	s.logger.Debug("Stream client disconnected: %s", c.ClientIP())
}

func writePart(w io.Writer, img *preview.Image) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: %s\r\nContent-Length: %d\r\nX-Frame-Seq: %d\r\n\r\n",
		boundary, img.ContentType(), len(img.Data), img.Info.Seq); err != nil {
		return err
	}
	if _, err := w.Write(img.Data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
