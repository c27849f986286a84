package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"connprobe/pkg/config"
	"connprobe/pkg/logger"
)

// RunStatus is the last completed batch as seen by the health endpoints.
type RunStatus struct {
	BatchID    string    `json:"batch_id,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// Server exposes /metrics, /health and /ready while watch mode is running.
// It is an operational endpoint for the operator, not part of the probing
// function itself.
type Server struct {
	cfg     *config.MonitoringConfig
	log     *logger.Logger
	metrics *Metrics
	server  *http.Server

	mu        sync.RWMutex
	ready     bool
	startTime time.Time
	lastRun   RunStatus
}

func NewServer(cfg *config.MonitoringConfig, metrics *Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		log:       log.WithComponent("monitoring"),
		metrics:   metrics,
		startTime: time.Now(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(cfg.HealthPath, s.handleHealth)
	router.GET(cfg.ReadyPath, s.handleReady)
	router.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	if cfg.EnablePprof {
		router.GET("/debug/pprof/*profile", gin.WrapH(http.HandlerFunc(pprof.Index)))
	}

	s.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     router,
		ReadTimeout: cfg.ReadTimeout,
	}

	return s
}

// Start serves in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		s.log.Info("monitoring server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("monitoring server failed", "error", err.Error())
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// SetReady flips the readiness state reported by the ready endpoint.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// RecordRun publishes the outcome of a completed batch to the health
// endpoint.
func (s *Server) RecordRun(batchID string, succeeded, failed int) {
	s.mu.Lock()
	s.lastRun = RunStatus{
		BatchID:    batchID,
		FinishedAt: time.Now(),
		Succeeded:  succeeded,
		Failed:     failed,
	}
	s.mu.Unlock()
}

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.RLock()
	lastRun := s.lastRun
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": time.Since(s.startTime).Seconds(),
		"timestamp":      time.Now(),
		"last_run":       lastRun,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
