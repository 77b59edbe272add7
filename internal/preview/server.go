// Package preview serves the live state of a dithering run over HTTP.
//
// The server only reads from the progress cell; the processing goroutine never
// waits on it. A status poller turns cell changes into server-sent events.
package preview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/middleware"
	"github.com/rmitchellscott/qdither/internal/progress"
	"github.com/rmitchellscott/qdither/internal/sse"
)

// Options configures the preview server
type Options struct {
	Addr       string
	OutputPath string
	// Interval is how often the cell is checked for changes
	Interval time.Duration
	// RateLimit and Burst bound requests per client IP
	RateLimit float64
	Burst     int
	// KeepAlive is the SSE ping interval
	KeepAlive time.Duration
}

// DefaultOptions returns the options used when only an address is given
func DefaultOptions(addr string) Options {
	return Options{
		Addr:      addr,
		Interval:  100 * time.Millisecond,
		RateLimit: 50,
		Burst:     100,
		KeepAlive: 30 * time.Second,
	}
}

// Server exposes a progress cell over HTTP
type Server struct {
	opts     Options
	cell     *progress.Cell
	events   *sse.Service
	status   *StatusPoller
	router   *gin.Engine
	srv      *http.Server
	listener net.Listener
	cancel   context.CancelFunc

	mu   sync.RWMutex
	done *sse.Event
}

// New builds the preview server and its routes without listening
func New(cell *progress.Cell, opts Options) *Server {
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}

	s := &Server{
		opts:   opts,
		cell:   cell,
		events: sse.NewService(),
	}
	s.status = NewStatusPoller(cell, s.events, opts.Interval)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Accept", "Cache-Control"}
	router.Use(cors.New(corsConfig))

	if opts.RateLimit > 0 {
		router.Use(middleware.NewIPRateLimiter(opts.RateLimit, opts.Burst).RateLimit())
	}

	router.GET("/", s.indexHandler)
	router.GET("/api/status", s.statusHandler)
	router.GET("/api/events", s.eventsHandler)
	router.GET("/preview.png", s.previewHandler)
	router.GET("/palette.png", s.paletteHandler)

	s.router = router
	return s
}

// Handler returns the HTTP handler, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// StatusPoller returns the poller that broadcasts cell changes
func (s *Server) StatusPoller() *StatusPoller {
	return s.status
}

// Complete publishes the outcome of saving the output to current and future subscribers
func (s *Server) Complete(saveErr error) {
	event := doneEvent(s.opts.OutputPath, saveErr)

	s.mu.Lock()
	s.done = &event
	s.mu.Unlock()

	s.events.Broadcast(event)
}

func (s *Server) completion() *sse.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Start binds the listen address and serves in the background.
// Bind errors are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, s.cancel = context.WithCancel(ctx)
	go s.events.KeepAlive(ctx, s.opts.KeepAlive)

	go func() {
		logging.InfoWithComponent(logging.ComponentPreview, "Listening", "address", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithComponent(logging.ComponentPreview, "Preview server stopped", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.opts.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown disconnects event streams and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.events.CloseAll()

	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview server forced to shutdown: %w", err)
	}
	return nil
}

// requestLogger logs each request at debug level
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.DebugWithComponent(logging.ComponentPreview, "Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
