package worker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/fetcher"
	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/observability"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// Gateway is the caller side of the fetch boundary. Every call spawns a
// fresh worker process, waits for its single JSON document and decodes it.
type Gateway struct {
	cfg        *config.Config
	runner     Runner
	binary     string
	configPath string
	limiter    *rate.Limiter
	proxies    *fetcher.ProxyManager
	metrics    *observability.Metrics
	logger     *slog.Logger

	runtimeOnce sync.Once
	browserBin  string
}

// GatewayOption configures the Gateway.
type GatewayOption func(*Gateway)

// WithRunner replaces the process runner.
func WithRunner(r Runner) GatewayOption {
	return func(g *Gateway) { g.runner = r }
}

// WithBinary sets the worker executable.
func WithBinary(path string) GatewayOption {
	return func(g *Gateway) { g.binary = path }
}

// WithConfigPath forwards an explicit config file to workers.
func WithConfigPath(path string) GatewayOption {
	return func(g *Gateway) { g.configPath = path }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway creates a new Gateway.
func NewGateway(cfg *config.Config, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		cfg:     cfg,
		binary:  cfg.Fetch.WorkerBinary,
		proxies: fetcher.NewProxyManager(&cfg.Proxy, logger),
		logger:  logger.With("component", "gateway"),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.runner == nil {
		g.runner = &ExecRunner{Stderr: os.Stderr, MaxOutput: cfg.Fetch.MaxBodySize}
	}
	if g.binary == "" {
		if exe, err := os.Executable(); err == nil {
			g.binary = exe
		}
	}
	if g.metrics == nil {
		g.metrics = observability.NewMetrics(logger)
	}
	if n := cfg.Fetch.RatePerMinute; n > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}

	return g
}

// Metrics returns the gateway's metrics.
func (g *Gateway) Metrics() *observability.Metrics {
	return g.metrics
}

// FetchProduct retrieves and extracts one product. Invalid ids fail with
// types.ErrNotFound and types.ErrInvalidID before any process is spawned.
func (g *Gateway) FetchProduct(ctx context.Context, id, domain string) (*types.Product, error) {
	id = marketplace.NormalizeID(id)
	if !marketplace.Validate(id) {
		return nil, fmt.Errorf("%w: %w %q", types.ErrNotFound, types.ErrInvalidID, id)
	}

	out, err := g.invoke(ctx, Request{Command: CmdProduct, Arg: id, Domain: domain})
	if err != nil {
		g.metrics.ProductsFailed.Add(1)
		return nil, err
	}

	var product types.Product
	if err := decodeObject(out, &product); err != nil {
		g.metrics.ProductsFailed.Add(1)
		g.countError(err)
		return nil, err
	}
	if product.ID == "" {
		product.ID = id
	}
	g.metrics.ProductsFetched.Add(1)
	return &product, nil
}

// Search retrieves one search result page. Worker-side failures surface as
// an empty slice.
func (g *Gateway) Search(ctx context.Context, keyword, domain string, page int) ([]types.ResultEntry, error) {
	if page < 1 {
		page = 1
	}
	out, err := g.invoke(ctx, Request{Command: CmdSearch, Arg: keyword, Domain: domain, Extra: strconv.Itoa(page)})
	if err != nil {
		return nil, err
	}

	entries := make([]types.ResultEntry, 0)
	if err := json.Unmarshal(out, &entries); err != nil {
		g.metrics.MalformedOutput.Add(1)
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedOutput, err)
	}
	g.metrics.SearchPages.Add(1)
	g.metrics.SearchEntries.Add(int64(len(entries)))
	return entries, nil
}

// Screenshot captures the product page of id as PNG bytes.
func (g *Gateway) Screenshot(ctx context.Context, id, domain, language string) ([]byte, error) {
	id = marketplace.NormalizeID(id)
	if !marketplace.Validate(id) {
		return nil, fmt.Errorf("%w: %w %q", types.ErrNotFound, types.ErrInvalidID, id)
	}

	out, err := g.invoke(ctx, Request{Command: CmdScreenshot, Arg: id, Domain: domain, Extra: language})
	if err != nil {
		return nil, err
	}

	var doc ScreenshotDoc
	if err := decodeObject(out, &doc); err != nil {
		g.countError(err)
		return nil, err
	}
	img, err := base64.StdEncoding.DecodeString(doc.Screenshot)
	if err != nil || len(img) == 0 {
		g.metrics.MalformedOutput.Add(1)
		return nil, fmt.Errorf("%w: invalid screenshot payload", types.ErrMalformedOutput)
	}
	g.metrics.Screenshots.Add(1)
	return img, nil
}

// invoke runs a request with throttling and retries. Every attempt is a
// fresh process.
func (g *Gateway) invoke(ctx context.Context, req Request) ([]byte, error) {
	g.ensureRuntime(req)

	attempts := 1 + g.cfg.Fetch.MaxRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			g.metrics.SpawnsRetried.Add(1)
			delay := fetcher.RandomDelay(g.cfg.Fetch.RetryDelay * time.Duration(attempt-1))
			g.logger.Debug("retrying worker", "request", req.String(), "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		out, err := g.spawn(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || !fetcher.IsRetryable(err) {
			break
		}
	}
	g.metrics.SpawnsFailed.Add(1)
	return nil, lastErr
}

// spawn runs a single worker process and validates that it produced JSON.
// For object results an ErrorDoc is surfaced as a WorkerError so retry
// decisions can see it.
func (g *Gateway) spawn(ctx context.Context, req Request) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	requestID := uuid.NewString()
	env := []string{EnvRequestID + "=" + requestID}
	if g.browserBin != "" {
		env = append(env, EnvBrowserBin+"="+g.browserBin)
	}
	proxy := g.proxies.Next()
	if proxy != nil {
		g.metrics.ProxyRotations.Add(1)
		env = append(env, EnvProxy+"="+proxy.String())
	}

	args := req.Args()
	if g.configPath != "" {
		args = append([]string{"--config", g.configPath}, args...)
	}

	inv := Invocation{
		Binary:  g.binary,
		Args:    args,
		Env:     env,
		Timeout: req.Timeout(g.cfg.Fetch.PageTimeout, g.cfg.Fetch.ScreenshotTimeout),
	}

	log := g.logger.With("request_id", requestID, "command", req.Command, "arg", req.Arg)
	log.Debug("spawning worker", "domain", req.Domain, "extra", req.Extra, "timeout", inv.Timeout)

	g.metrics.SpawnsTotal.Add(1)
	g.metrics.ActiveWorkers.Add(1)
	start := time.Now()
	out, err := g.runner.Run(ctx, inv)
	g.metrics.ActiveWorkers.Add(-1)

	if err != nil {
		if errors.Is(err, types.ErrTimeout) {
			g.metrics.Timeouts.Add(1)
		}
		log.Warn("worker failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	out = bytes.TrimSpace(out)
	g.metrics.BytesReceived.Add(int64(len(out)))
	if len(out) == 0 {
		g.metrics.NoOutput.Add(1)
		log.Warn("worker produced no output", "duration", time.Since(start))
		return nil, types.ErrNoOutput
	}
	if !json.Valid(out) {
		g.metrics.MalformedOutput.Add(1)
		log.Warn("worker output is not valid JSON", "size", len(out))
		return nil, types.ErrMalformedOutput
	}

	if out[0] == '{' {
		var p probe
		if err := json.Unmarshal(out, &p); err == nil && p.Error != "" {
			werr := &types.WorkerError{Code: p.Error, Message: p.Message}
			if errors.Is(werr, types.ErrBlocked) {
				g.metrics.Blocked.Add(1)
				if proxy != nil {
					g.metrics.ProxyErrors.Add(1)
					g.proxies.MarkFailed(proxy, werr)
				}
			}
			log.Warn("worker reported failure", "code", p.Error, "message", p.Message)
			return nil, werr
		}
	}

	if proxy != nil {
		g.proxies.MarkHealthy(proxy)
	}
	log.Debug("worker finished", "size", len(out), "duration", time.Since(start))
	return out, nil
}

// ensureRuntime makes sure a browser is available before the first spawn
// that needs one and remembers its path for forwarding.
func (g *Gateway) ensureRuntime(req Request) {
	if !g.cfg.Fetch.EnsureRuntime {
		return
	}
	if g.cfg.Fetch.Mode == "http" && req.Command != CmdScreenshot {
		return
	}
	g.runtimeOnce.Do(func() {
		g.browserBin = fetcher.EnsureRuntime(g.logger, g.cfg.Browser.Bin)
	})
}

func (g *Gateway) countError(err error) {
	switch {
	case errors.Is(err, types.ErrMalformedOutput):
		g.metrics.MalformedOutput.Add(1)
	case errors.Is(err, types.ErrBlocked):
		g.metrics.Blocked.Add(1)
	}
}
