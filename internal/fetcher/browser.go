package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/RivalScope/internal/config"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// BrowserFetcher implements Fetcher and Screenshotter with a disposable
// headless Chromium. Every call launches its own browser and tears it down
// before returning, so no state is shared between calls.
type BrowserFetcher struct {
	cfg       *config.Config
	profile   *Profile
	challenge *ChallengeDetector
	opts      Options
	logger    *slog.Logger
}

// NewBrowserFetcher creates a new headless browser fetcher.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger, opts Options) *BrowserFetcher {
	if opts.BrowserBin == "" {
		opts.BrowserBin = cfg.Browser.Bin
	}
	return &BrowserFetcher{
		cfg:       cfg,
		profile:   NewProfile(&cfg.Browser),
		challenge: NewChallengeDetector(cfg.Browser.ChallengePhrases),
		opts:      opts,
		logger:    logger.With("component", "browser_fetcher"),
	}
}

// session is one launched browser with a single prepared page.
type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// close tears the browser down completely.
func (s *session) close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}

// open launches Chromium and prepares a stealth page with the given profile.
func (bf *BrowserFetcher) open(ctx context.Context, profile *Profile) (*session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		Leakless(false).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", profile.ViewportWidth, profile.ViewportHeight))

	if bf.opts.BrowserBin != "" {
		l = l.Bin(bf.opts.BrowserBin)
	}
	if bf.opts.Proxy != "" {
		l = l.Proxy(bf.opts.Proxy)
	}

	s := &session{launcher: l}

	controlURL, err := l.Launch()
	if err != nil {
		s.close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		s.close()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	s.page = page

	if err := bf.applyProfile(page, profile); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// applyProfile sets the user agent, viewport, locale, timezone and the
// navigator overrides on a fresh page.
func (bf *BrowserFetcher) applyProfile(page *rod.Page, profile *Profile) error {
	err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      profile.UserAgent,
		AcceptLanguage: profile.AcceptLanguage(),
	})
	if err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             profile.ViewportWidth,
		Height:            profile.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if profile.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: profile.Timezone}).Call(page); err != nil {
			bf.logger.Warn("failed to set timezone", "timezone", profile.Timezone, "error", err)
		}
	}
	if profile.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: profile.Locale}).Call(page); err != nil {
			bf.logger.Warn("failed to set locale", "locale", profile.Locale, "error", err)
		}
	}

	if _, err := page.EvalOnNewDocument(profile.InitScript()); err != nil {
		return fmt.Errorf("install init script: %w", err)
	}
	return nil
}

// navigate loads url and waits for DOMContentLoaded, bounded by the
// navigation timeout.
func (bf *BrowserFetcher) navigate(page *rod.Page, url string) error {
	nav := page.Timeout(bf.cfg.Fetch.NavigationTimeout)
	defer nav.CancelTimeout()

	wait := nav.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := nav.Navigate(url); err != nil {
		return err
	}
	wait()
	return nil
}

// waitFor waits up to the selector timeout for selector. A timeout is not fatal.
func (bf *BrowserFetcher) waitFor(page *rod.Page, selector string) {
	if selector == "" {
		return
	}
	if _, err := page.Timeout(bf.cfg.Browser.SelectorWait).Element(selector); err != nil {
		bf.logger.Debug("wait selector timeout, continuing", "selector", selector, "error", err)
	}
}

// Fetch navigates to a URL and returns the rendered page content.
func (bf *BrowserFetcher) Fetch(ctx context.Context, url, waitSelector string) (*types.Page, error) {
	start := time.Now()

	s, err := bf.open(ctx, bf.profile)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	defer s.close()

	if err := bf.navigate(s.page, url); err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("navigate: %w", err)}
	}

	bf.waitFor(s.page, waitSelector)

	if bf.cfg.Browser.ScrollDistance > 0 {
		if _, err := s.page.Eval(`(y) => window.scrollBy(0, y)`, bf.cfg.Browser.ScrollDistance); err != nil {
			bf.logger.Debug("scroll failed", "url", url, "error", err)
		}
	}
	if err := sleep(ctx, bf.cfg.Browser.SettleDelay); err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}

	html, err := s.page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("read html: %w", err)}
	}

	if phrase, blocked := bf.challenge.Detect(html); blocked {
		bf.logger.Warn("bot challenge detected", "url", url, "phrase", phrase)
		return nil, &types.FetchError{URL: url, Err: types.ErrBlocked}
	}

	finalURL := url
	if info, err := s.page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete",
		"url", url,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewPage(url, finalURL, []byte(html), duration), nil
}

// Screenshot captures the viewport of url as PNG bytes.
func (bf *BrowserFetcher) Screenshot(ctx context.Context, url string) ([]byte, error) {
	profile := bf.profile.WithViewport(bf.cfg.Browser.ScreenshotWidth, bf.cfg.Browser.ScreenshotHeight)

	s, err := bf.open(ctx, profile)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	defer s.close()

	if err := bf.navigate(s.page, url); err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("navigate: %w", err)}
	}
	bf.waitFor(s.page, "#productTitle")
	if err := sleep(ctx, bf.cfg.Browser.ScreenshotSettle); err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}

	img, err := s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("capture: %w", err)}
	}
	if len(img) == 0 {
		return nil, &types.FetchError{URL: url, Err: errors.New("empty screenshot")}
	}

	bf.logger.Debug("screenshot captured", "url", url, "size", len(img))
	return img, nil
}

// Close is a no-op; browsers never outlive a call.
func (bf *BrowserFetcher) Close() error {
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
