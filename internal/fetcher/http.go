package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// HTTPFetcher implements Fetcher using net/http with browser-like headers.
type HTTPFetcher struct {
	client    *http.Client
	transport *HeaderTransport
	cfg       *config.FetchConfig
	challenge *ChallengeDetector
	logger    *slog.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger, opts Options) (*HTTPFetcher, error) {
	var proxy func(*http.Request) (*url.URL, error)
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		proxy = http.ProxyURL(u)
	}

	transport := NewHeaderTransport(NewProfile(&cfg.Browser), proxy, logger)
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Fetch.NavigationTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("max redirects (10) reached")
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:    client,
		transport: transport,
		cfg:       &cfg.Fetch,
		challenge: NewChallengeDetector(cfg.Browser.ChallengePhrases),
		logger:    logger.With("component", "http_fetcher"),
	}, nil
}

// Fetch executes a GET request and returns the decoded page. waitSelector is
// ignored since no script runs.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, _ string) (*types.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("HTTP %d: %w", resp.StatusCode, types.ErrBlocked)}
	}
	if resp.StatusCode >= 400 {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var reader io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	duration := time.Since(start)

	if phrase, blocked := f.challenge.Detect(string(body)); blocked {
		f.logger.Warn("bot challenge detected", "url", rawURL, "phrase", phrase)
		return nil, &types.FetchError{URL: rawURL, Err: types.ErrBlocked}
	}

	f.logger.Debug("fetch complete",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return types.NewPage(rawURL, resp.Request.URL.String(), body, duration), nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.transport.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// IsRetryable reports whether a fetch error warrants a fresh attempt.
// Challenges and cancellations are final; timeouts and resets are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, types.ErrBlocked) || errors.Is(err, types.ErrInvalidID) || errors.Is(err, types.ErrParseFailure) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, types.ErrTimeout) || errors.Is(err, types.ErrNoOutput) || errors.Is(err, types.ErrMalformedOutput) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	var werr *types.WorkerError
	if errors.As(err, &werr) {
		return werr.Code == types.CodeFetchFailed || werr.Code == types.CodeScreenshotFailed
	}
	return false
}

// RandomDelay returns a random delay around the base duration (±25%).
func RandomDelay(base time.Duration) time.Duration {
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}
