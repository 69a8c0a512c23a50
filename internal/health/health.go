// Package health provides HTTP health check endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

const checkTimeout = 5 * time.Second

// Check is the result of a single probe.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Status is the aggregate health response.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// CheckFunc performs a single health probe.
type CheckFunc func(ctx context.Context) (bool, string)

// EthNodeCheck probes the Ethereum node and verifies it still serves the
// expected chain.
func EthNodeCheck(client *ethclient.Client, wantChainID uint64) CheckFunc {
	return func(ctx context.Context) (bool, string) {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return false, fmt.Sprintf("node unreachable: %v", err)
		}
		if chainID.Uint64() != wantChainID {
			return false, fmt.Sprintf("node serves chain %d, want %d", chainID.Uint64(), wantChainID)
		}
		return true, ""
	}
}

// StalenessCheck reports unhealthy when lastUpdate returns a time older
// than maxAge. Used for the reference price feed.
func StalenessCheck(lastUpdate func() time.Time, maxAge time.Duration) CheckFunc {
	return func(ctx context.Context) (bool, string) {
		last := lastUpdate()
		if last.IsZero() {
			return false, "no data received yet"
		}
		if age := time.Since(last); age > maxAge {
			return false, fmt.Sprintf("stale for %s", age.Round(time.Second))
		}
		return true, ""
	}
}

// Server exposes /health, /ready and /live.
type Server struct {
	port    int
	version string

	mu     sync.RWMutex
	checks map[string]CheckFunc

	server *http.Server
}

// NewServer creates a health check server listening on port.
func NewServer(port int, version string) *Server {
	return &Server{
		port:    port,
		version: version,
		checks:  make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named probe. Safe to call after Start.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Start begins serving in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("alive"))
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// Health endpoint is optional, a bind failure must not kill the app.
		_ = s.server.ListenAndServe()
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) snapshot() map[string]CheckFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]CheckFunc, len(s.checks))
	for k, v := range s.checks {
		out[k] = v
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := Status{
		Status:    "ok",
		Checks:    make(map[string]Check),
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	for name, check := range s.snapshot() {
		healthy, msg := check(ctx)
		status.Checks[name] = Check{Healthy: healthy, Message: msg}
		if !healthy {
			status.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	for _, check := range s.snapshot() {
		if healthy, _ := check(ctx); !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
