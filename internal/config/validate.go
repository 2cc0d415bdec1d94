package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetch.Mode != "browser" && cfg.Fetch.Mode != "http" {
		return fmt.Errorf("fetch.mode must be 'browser' or 'http', got %q", cfg.Fetch.Mode)
	}
	if cfg.Fetch.PageTimeout <= 0 {
		return fmt.Errorf("fetch.page_timeout must be > 0")
	}
	if cfg.Fetch.ScreenshotTimeout <= 0 {
		return fmt.Errorf("fetch.screenshot_timeout must be > 0")
	}
	if cfg.Fetch.NavigationTimeout <= 0 {
		return fmt.Errorf("fetch.navigation_timeout must be > 0")
	}
	if cfg.Fetch.NavigationTimeout >= cfg.Fetch.PageTimeout {
		return fmt.Errorf("fetch.navigation_timeout (%s) must be shorter than fetch.page_timeout (%s)",
			cfg.Fetch.NavigationTimeout, cfg.Fetch.PageTimeout)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0, got %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.RetryDelay < 0 {
		return fmt.Errorf("fetch.retry_delay must be >= 0")
	}
	if cfg.Fetch.RatePerMinute < 0 {
		return fmt.Errorf("fetch.rate_per_minute must be >= 0, got %d", cfg.Fetch.RatePerMinute)
	}
	if cfg.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be > 0")
	}

	if cfg.Browser.ViewportWidth < 1 || cfg.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d",
			cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	if cfg.Browser.ScreenshotWidth < 1 || cfg.Browser.ScreenshotHeight < 1 {
		return fmt.Errorf("browser screenshot viewport must be positive, got %dx%d",
			cfg.Browser.ScreenshotWidth, cfg.Browser.ScreenshotHeight)
	}
	if cfg.Browser.ScrollDistance < 0 {
		return fmt.Errorf("browser.scroll_distance must be >= 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Discovery.DefaultCount < 1 {
		return fmt.Errorf("discovery.default_count must be >= 1, got %d", cfg.Discovery.DefaultCount)
	}
	if cfg.Discovery.Workers < 1 || cfg.Discovery.Workers > 16 {
		return fmt.Errorf("discovery.workers must be 1-16, got %d", cfg.Discovery.Workers)
	}
	if cfg.Discovery.SearchTokens < 1 {
		return fmt.Errorf("discovery.search_tokens must be >= 1, got %d", cfg.Discovery.SearchTokens)
	}
	if cfg.Discovery.TopRankMax < 0 {
		return fmt.Errorf("discovery.top_rank_max must be >= 0, got %d", cfg.Discovery.TopRankMax)
	}
	if cfg.Discovery.BenchmarkRatio <= 0 {
		return fmt.Errorf("discovery.benchmark_ratio must be > 0, got %g", cfg.Discovery.BenchmarkRatio)
	}

	if cfg.Keywords.MaxPages < 1 {
		return fmt.Errorf("keywords.max_pages must be >= 1, got %d", cfg.Keywords.MaxPages)
	}
	if cfg.Keywords.MaxPhrases < 0 {
		return fmt.Errorf("keywords.max_phrases must be >= 0, got %d", cfg.Keywords.MaxPhrases)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	validFormats := map[string]bool{
		"json": true, "jsonl": true, "csv": true,
	}
	if !validFormats[cfg.Output.Format] {
		return fmt.Errorf("output.format %q is not supported (valid: json, jsonl, csv)", cfg.Output.Format)
	}

	return nil
}
