package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// KeepAlive periodically pings collaborator endpoints so free-tier
// hosts don't spin down between requests. It runs on its own schedule,
// independent of request handling; ping failures are logged, never
// surfaced to callers.
type KeepAlive struct {
	services map[string]string
	interval time.Duration
	client   *http.Client
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// PingResult records the outcome of one service ping.
type PingResult struct {
	Service    string `json:"service"`
	URL        string `json:"url"`
	Alive      bool   `json:"alive"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewKeepAlive creates a keep-alive pinger for the named services
// (service name -> base URL).
func NewKeepAlive(services map[string]string, interval time.Duration, logger *zap.Logger) *KeepAlive {
	if interval <= 0 {
		interval = 14 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeepAlive{
		services: services,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// Start launches the background ping loop. Calling Start on a running
// pinger is a no-op.
func (k *KeepAlive) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	k.running = true

	go k.loop(ctx)
	k.logger.Info("keep-alive service started",
		zap.Duration("interval", k.interval),
		zap.Int("services", len(k.services)))
}

// Stop terminates the ping loop.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running {
		return
	}
	k.cancel()
	k.running = false
	k.logger.Info("keep-alive service stopped")
}

// Running reports whether the ping loop is active.
func (k *KeepAlive) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Interval returns the configured ping interval.
func (k *KeepAlive) Interval() time.Duration {
	return k.interval
}

// Services returns the configured service names.
func (k *KeepAlive) Services() []string {
	names := make([]string, 0, len(k.services))
	for name := range k.services {
		names = append(names, name)
	}
	return names
}

// Ping pings all services once and returns the results.
func (k *KeepAlive) Ping(ctx context.Context) []PingResult {
	results := make([]PingResult, 0, len(k.services))
	for name, url := range k.services {
		result := PingResult{Service: name, URL: url}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		resp, err := k.client.Do(req)
		if err != nil {
			result.Error = err.Error()
			k.logger.Warn("keep-alive ping failed",
				zap.String("service", name), zap.Error(err))
			results = append(results, result)
			continue
		}
		resp.Body.Close()

		result.Alive = true
		result.StatusCode = resp.StatusCode
		results = append(results, result)
	}
	return results
}

func (k *KeepAlive) loop(ctx context.Context) {
	// Let the server finish starting before the first ping
	select {
	case <-ctx.Done():
		return
	case <-time.After(5 * time.Second):
	}
	k.Ping(ctx)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Ping(ctx)
		}
	}
}
