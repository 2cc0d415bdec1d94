package fetcher

import (
	"log/slog"
	"sync"

	"github.com/go-rod/rod/lib/launcher"
)

var (
	runtimeOnce sync.Once
	runtimeBin  string
)

// EnsureRuntime makes sure a Chromium binary is available, downloading one
// when none is installed. It runs at most once per process; concurrent
// callers block until the first call finishes. Failures are logged and
// ignored, in which case the returned path is empty and workers fall back
// to the launcher's own lookup.
func EnsureRuntime(logger *slog.Logger, configured string) string {
	runtimeOnce.Do(func() {
		log := logger.With("component", "runtime")

		if configured != "" {
			runtimeBin = configured
			return
		}
		if path, found := launcher.LookPath(); found {
			runtimeBin = path
			log.Debug("using installed browser", "path", path)
			return
		}

		path, err := launcher.NewBrowser().Get()
		if err != nil {
			log.Warn("browser runtime setup failed, continuing", "error", err)
			return
		}
		runtimeBin = path
		log.Info("browser runtime ready", "path", path)
	})
	return runtimeBin
}
