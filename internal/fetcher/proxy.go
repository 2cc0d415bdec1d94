package fetcher

import (
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/RivalScope/internal/config"
)

// ProxyManager rotates proxies across worker spawns and tracks which ones
// keep getting challenged.
type ProxyManager struct {
	proxies  []*proxyEntry
	rotation string
	index    atomic.Int64
	mu       sync.RWMutex
	logger   *slog.Logger
}

type proxyEntry struct {
	URL     *url.URL
	Healthy bool
	LastErr error
	LastUse time.Time
}

// NewProxyManager creates a new ProxyManager from configuration. It returns
// nil when proxies are disabled or none are configured.
func NewProxyManager(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyManager {
	if !cfg.Enabled || len(cfg.URLs) == 0 {
		return nil
	}

	pm := &ProxyManager{
		proxies:  make([]*proxyEntry, 0, len(cfg.URLs)),
		rotation: cfg.Rotation,
		logger:   logger.With("component", "proxy_manager"),
	}

	for _, rawURL := range cfg.URLs {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			pm.logger.Warn("invalid proxy URL", "url", rawURL, "error", err)
			continue
		}
		pm.proxies = append(pm.proxies, &proxyEntry{
			URL:     u,
			Healthy: true,
		})
	}

	pm.logger.Info("proxy manager initialized", "count", len(pm.proxies), "rotation", cfg.Rotation)
	return pm
}

// Next returns the next proxy URL based on the rotation strategy. When every
// proxy is unhealthy all of them are reset and rotation starts over.
func (pm *ProxyManager) Next() *url.URL {
	if pm == nil {
		return nil
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) == 0 {
		return nil
	}

	healthy := pm.healthyProxies()
	if len(healthy) == 0 {
		pm.logger.Warn("all proxies unhealthy, resetting")
		for _, p := range pm.proxies {
			p.Healthy = true
			p.LastErr = nil
		}
		healthy = pm.proxies
	}

	var entry *proxyEntry
	switch pm.rotation {
	case "random":
		entry = healthy[rand.Intn(len(healthy))]
	default: // round_robin
		idx := (pm.index.Add(1) - 1) % int64(len(healthy))
		entry = healthy[idx]
	}
	entry.LastUse = time.Now()
	return entry.URL
}

// MarkFailed marks a proxy as unhealthy.
func (pm *ProxyManager) MarkFailed(proxyURL *url.URL, err error) {
	if pm == nil || proxyURL == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, p := range pm.proxies {
		if p.URL.String() == proxyURL.String() {
			p.Healthy = false
			p.LastErr = err
			pm.logger.Warn("proxy marked unhealthy",
				"proxy", proxyURL.Host,
				"error", err,
			)
			break
		}
	}
}

// MarkHealthy marks a proxy as healthy.
func (pm *ProxyManager) MarkHealthy(proxyURL *url.URL) {
	if pm == nil || proxyURL == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, p := range pm.proxies {
		if p.URL.String() == proxyURL.String() {
			p.Healthy = true
			p.LastErr = nil
			break
		}
	}
}

// Count returns the total number of proxies.
func (pm *ProxyManager) Count() int {
	if pm == nil {
		return 0
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.proxies)
}

func (pm *ProxyManager) healthyProxies() []*proxyEntry {
	healthy := make([]*proxyEntry, 0, len(pm.proxies))
	for _, p := range pm.proxies {
		if p.Healthy {
			healthy = append(healthy, p)
		}
	}
	return healthy
}
