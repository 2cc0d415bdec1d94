package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for RivalScope.
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Proxy     ProxyConfig     `mapstructure:"proxy"     yaml:"proxy"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Keywords  KeywordsConfig  `mapstructure:"keywords"  yaml:"keywords"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
	Output    OutputConfig    `mapstructure:"output"    yaml:"output"`
}

// FetchConfig controls the worker processes that fetch pages.
type FetchConfig struct {
	// Mode selects how a worker retrieves HTML: "browser" or "http".
	Mode string `mapstructure:"mode" yaml:"mode"`

	// WorkerBinary is the executable spawned per fetch. Empty means the
	// running binary.
	WorkerBinary string `mapstructure:"worker_binary" yaml:"worker_binary"`

	PageTimeout       time.Duration `mapstructure:"page_timeout"       yaml:"page_timeout"`
	ScreenshotTimeout time.Duration `mapstructure:"screenshot_timeout" yaml:"screenshot_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`

	MaxRetries    int           `mapstructure:"max_retries"     yaml:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"     yaml:"retry_delay"`
	RatePerMinute int           `mapstructure:"rate_per_minute" yaml:"rate_per_minute"`
	MaxBodySize   int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	EnsureRuntime bool          `mapstructure:"ensure_runtime"  yaml:"ensure_runtime"`
}

// BrowserConfig controls the disposable headless browser context.
type BrowserConfig struct {
	Bin              string        `mapstructure:"bin"               yaml:"bin"`
	UserAgent        string        `mapstructure:"user_agent"        yaml:"user_agent"`
	ViewportWidth    int           `mapstructure:"viewport_width"    yaml:"viewport_width"`
	ViewportHeight   int           `mapstructure:"viewport_height"   yaml:"viewport_height"`
	ScreenshotWidth  int           `mapstructure:"screenshot_width"  yaml:"screenshot_width"`
	ScreenshotHeight int           `mapstructure:"screenshot_height" yaml:"screenshot_height"`
	Locale           string        `mapstructure:"locale"            yaml:"locale"`
	Timezone         string        `mapstructure:"timezone"          yaml:"timezone"`
	SelectorWait     time.Duration `mapstructure:"selector_wait"     yaml:"selector_wait"`
	ScrollDistance   int           `mapstructure:"scroll_distance"   yaml:"scroll_distance"`
	SettleDelay      time.Duration `mapstructure:"settle_delay"      yaml:"settle_delay"`
	ScreenshotSettle time.Duration `mapstructure:"screenshot_settle" yaml:"screenshot_settle"`
	ChallengePhrases []string      `mapstructure:"challenge_phrases" yaml:"challenge_phrases"`
}

// ProxyConfig controls proxy rotation across worker spawns.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// DiscoveryConfig controls competitor discovery and tiering.
type DiscoveryConfig struct {
	DefaultCount int `mapstructure:"default_count" yaml:"default_count"`
	Workers      int `mapstructure:"workers"       yaml:"workers"`
	SearchTokens int `mapstructure:"search_tokens" yaml:"search_tokens"`

	// TopRankMax and BenchmarkRatio are heuristic tier thresholds.
	TopRankMax     int     `mapstructure:"top_rank_max"    yaml:"top_rank_max"`
	BenchmarkRatio float64 `mapstructure:"benchmark_ratio" yaml:"benchmark_ratio"`
}

// KeywordsConfig controls keyword rank aggregation.
type KeywordsConfig struct {
	MaxPages   int `mapstructure:"max_pages"   yaml:"max_pages"`
	MaxPhrases int `mapstructure:"max_phrases" yaml:"max_phrases"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			Mode:              "browser",
			PageTimeout:       45 * time.Second,
			ScreenshotTimeout: 30 * time.Second,
			NavigationTimeout: 20 * time.Second,
			MaxRetries:        0,
			RetryDelay:        2 * time.Second,
			MaxBodySize:       10 * 1024 * 1024, // 10MB
			EnsureRuntime:     true,
		},
		Browser: BrowserConfig{
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			ViewportWidth:    1920,
			ViewportHeight:   1080,
			ScreenshotWidth:  1280,
			ScreenshotHeight: 900,
			Locale:           "en-US",
			Timezone:         "America/New_York",
			SelectorWait:     8 * time.Second,
			ScrollDistance:   800,
			SettleDelay:      1500 * time.Millisecond,
			ScreenshotSettle: 2 * time.Second,
			ChallengePhrases: []string{
				"captcha",
				"robot check",
				"sorry, we just need to make sure",
				"type the characters you see",
			},
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Discovery: DiscoveryConfig{
			DefaultCount:   4,
			Workers:        1,
			SearchTokens:   5,
			TopRankMax:     10,
			BenchmarkRatio: 0.5,
		},
		Keywords: KeywordsConfig{
			MaxPages:   3,
			MaxPhrases: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}
