// Package monitor serves the daemon's HTTP endpoints: Prometheus metrics,
// liveness and readiness checks, and read-only views of daemon state.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veesix-networks/osvswitch/internal/watchdog"
	"github.com/veesix-networks/osvswitch/pkg/component"
	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/ifmgr"
	"github.com/veesix-networks/osvswitch/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	ListenAddress string
	Gatherer      prometheus.Gatherer
	Health        watchdog.StateProvider
	Interfaces    *ifmgr.Manager
	EventBus      events.Bus
}

type Component struct {
	*component.Base

	logger *slog.Logger
	cfg    Config

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	running  bool
}

func New(cfg Config) *Component {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	return &Component{
		Base:   component.NewBase("monitor"),
		logger: logger.Get(logger.Metrics),
		cfg:    cfg,
	}
}

// Addr returns the bound address once started. It differs from the
// configured one when the port was 0.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listener == nil {
		return c.cfg.ListenAddress
	}
	return c.listener.Addr().String()
}

func (c *Component) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Start binds the listener before returning so an unusable address fails
// daemon startup.
func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)

	l, err := net.Listen("tcp", c.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.cfg.ListenAddress, err)
	}

	server := &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	c.mu.Lock()
	c.listener = l
	c.server = server
	c.running = true
	c.mu.Unlock()

	c.logger.Info("Monitoring HTTP server listening", "addr", l.Addr().String())

	c.Go(func() {
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Monitoring HTTP server error", "error", err)
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping monitoring HTTP server")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	var err error
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	}

	c.StopContext()
	return err
}

func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(c.cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /healthz", watchdog.HealthzHandler())
	mux.HandleFunc("GET /openapi.json", c.handleOpenAPI)
	if c.cfg.Health != nil {
		mux.Handle("GET /readyz", watchdog.ReadyzHandler(c.cfg.Health))
	}
	if c.cfg.Interfaces != nil {
		mux.HandleFunc("GET /interfaces", c.handleInterfaces)
	}
	if c.cfg.EventBus != nil {
		mux.HandleFunc("GET /events", c.handleEvents)
	}
	return mux
}

func (c *Component) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		iface, ok := c.cfg.Interfaces.GetByName(name)
		if !ok {
			http.Error(w, "interface not found", http.StatusNotFound)
			return
		}
		writeJSON(w, iface)
		return
	}
	writeJSON(w, c.cfg.Interfaces.List())
}

func (c *Component) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.cfg.EventBus.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
