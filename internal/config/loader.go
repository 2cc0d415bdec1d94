package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flag overrides are applied by the caller afterwards.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("RIVALSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("rivalscope")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".rivalscope"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetch.mode", cfg.Fetch.Mode)
	v.SetDefault("fetch.worker_binary", cfg.Fetch.WorkerBinary)
	v.SetDefault("fetch.page_timeout", cfg.Fetch.PageTimeout)
	v.SetDefault("fetch.screenshot_timeout", cfg.Fetch.ScreenshotTimeout)
	v.SetDefault("fetch.navigation_timeout", cfg.Fetch.NavigationTimeout)
	v.SetDefault("fetch.max_retries", cfg.Fetch.MaxRetries)
	v.SetDefault("fetch.retry_delay", cfg.Fetch.RetryDelay)
	v.SetDefault("fetch.rate_per_minute", cfg.Fetch.RatePerMinute)
	v.SetDefault("fetch.max_body_size", cfg.Fetch.MaxBodySize)
	v.SetDefault("fetch.ensure_runtime", cfg.Fetch.EnsureRuntime)

	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.viewport_width", cfg.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", cfg.Browser.ViewportHeight)
	v.SetDefault("browser.screenshot_width", cfg.Browser.ScreenshotWidth)
	v.SetDefault("browser.screenshot_height", cfg.Browser.ScreenshotHeight)
	v.SetDefault("browser.locale", cfg.Browser.Locale)
	v.SetDefault("browser.timezone", cfg.Browser.Timezone)
	v.SetDefault("browser.selector_wait", cfg.Browser.SelectorWait)
	v.SetDefault("browser.scroll_distance", cfg.Browser.ScrollDistance)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.screenshot_settle", cfg.Browser.ScreenshotSettle)
	v.SetDefault("browser.challenge_phrases", cfg.Browser.ChallengePhrases)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)

	v.SetDefault("discovery.default_count", cfg.Discovery.DefaultCount)
	v.SetDefault("discovery.workers", cfg.Discovery.Workers)
	v.SetDefault("discovery.search_tokens", cfg.Discovery.SearchTokens)
	v.SetDefault("discovery.top_rank_max", cfg.Discovery.TopRankMax)
	v.SetDefault("discovery.benchmark_ratio", cfg.Discovery.BenchmarkRatio)

	v.SetDefault("keywords.max_pages", cfg.Keywords.MaxPages)
	v.SetDefault("keywords.max_phrases", cfg.Keywords.MaxPhrases)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	v.SetDefault("output.format", cfg.Output.Format)
}
