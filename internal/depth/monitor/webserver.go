package monitor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
	"github.com/banshee-data/depthcluster/internal/monitoring"
)

// DefaultMaxBodyBytes bounds a posted cloud: 4M points in binary form.
const DefaultMaxBodyBytes = 64 << 20

// WebServer exposes the clustering pipeline and its last result over HTTP.
type WebServer struct {
	address   string
	clusterer *l4clusters.Clusterer
	plotPlane Plane
	maxBody   int64
	dataDir   string
	server    *http.Server

	mu   sync.RWMutex
	last *snapshot
}

// snapshot is the most recent frame with a private copy of its points, kept
// for the chart and plot endpoints.
type snapshot struct {
	frame  *l4clusters.Frame
	points l1points.Points
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address      string
	Clusterer    *l4clusters.Clusterer // nil uses DefaultParams
	PlotPlane    string                // default projection for plot.png; "" means xy
	MaxBodyBytes int64                 // 0 means DefaultMaxBodyBytes
	DataDir      string                // point files served by /api/depth/file; "" disables it
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	plane, err := ParsePlane(config.PlotPlane)
	if config.PlotPlane == "" {
		plane, err = planes["xy"], nil
	}
	if err != nil {
		return nil, err
	}

	ws := &WebServer{
		address:   config.Address,
		clusterer: config.Clusterer,
		plotPlane: plane,
		maxBody:   config.MaxBodyBytes,
		dataDir:   config.DataDir,
	}
	if ws.clusterer == nil {
		ws.clusterer = l4clusters.NewClusterer(l4clusters.DefaultParams())
	}
	if ws.maxBody <= 0 {
		ws.maxBody = DefaultMaxBodyBytes
	}

	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws, nil
}

// Handler returns the routed handler, for tests and embedding.
func (ws *WebServer) Handler() http.Handler { return ws.server.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully. A listen
// failure is returned immediately.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/depth/clusters", ws.handleClusters)
	mux.HandleFunc("/api/depth/file", ws.handleFile)
	mux.HandleFunc("/api/depth/last", ws.handleLast)
	mux.HandleFunc("/debug/depth/chart", ws.handleChart)
	mux.HandleFunc("/debug/depth/plot.png", ws.handlePlot)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (ws *WebServer) setLast(frame *l4clusters.Frame, points l1points.Points) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.last = &snapshot{frame: frame, points: points}
}

func (ws *WebServer) getLast() *snapshot {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.last
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
