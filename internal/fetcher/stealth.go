package fetcher

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IshaanNene/RivalScope/internal/config"
)

// Profile is the browser fingerprint presented on every request.
type Profile struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	Timezone       string
	Languages      []string
}

// NewProfile builds a page profile from browser configuration.
func NewProfile(cfg *config.BrowserConfig) *Profile {
	return &Profile{
		UserAgent:      cfg.UserAgent,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Locale:         cfg.Locale,
		Timezone:       cfg.Timezone,
		Languages:      languagesFor(cfg.Locale),
	}
}

// WithViewport returns a copy of the profile using a different viewport.
func (p *Profile) WithViewport(width, height int) *Profile {
	c := *p
	c.ViewportWidth = width
	c.ViewportHeight = height
	return &c
}

// AcceptLanguage renders Languages as an Accept-Language header value.
func (p *Profile) AcceptLanguage() string {
	parts := make([]string, 0, len(p.Languages))
	for i, lang := range p.Languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s;q=0.%d", lang, 10-i))
	}
	return strings.Join(parts, ",")
}

// InitScript returns JavaScript injected before any page script runs.
func (p *Profile) InitScript() string {
	quoted := make([]string, len(p.Languages))
	for i, lang := range p.Languages {
		quoted[i] = fmt.Sprintf("'%s'", lang)
	}
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'webdriver', { get: () => false });
Object.defineProperty(navigator, 'languages', { get: () => [%s] });
Object.defineProperty(navigator, 'plugins', {
	get: () => {
		const plugins = [
			{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
			{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
			{ name: 'Native Client', filename: 'internal-nacl-plugin' },
			{ name: 'Widevine Content Decryption Module', filename: 'widevinecdmadapter' },
			{ name: 'Microsoft Edge PDF Viewer', filename: 'edge-pdf-viewer' },
		];
		plugins.length = 5;
		return plugins;
	}
});
window.chrome = window.chrome || { runtime: {} };
`, strings.Join(quoted, ", "))
}

func languagesFor(locale string) []string {
	if locale == "" {
		return []string{"en-US", "en"}
	}
	langs := []string{locale}
	if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
		langs = append(langs, base)
	}
	return langs
}

// HeaderTransport adds browser-like headers to plain HTTP requests.
type HeaderTransport struct {
	inner   http.RoundTripper
	profile *Profile
	logger  *slog.Logger
}

// NewHeaderTransport wraps a transport configured with a browser-like TLS setup.
func NewHeaderTransport(profile *Profile, proxy func(*http.Request) (*url.URL, error), logger *slog.Logger) *HeaderTransport {
	inner := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		Proxy:               proxy,
		TLSClientConfig:     browserTLSConfig(),
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		// Decompression is handled explicitly so brotli is supported too.
		DisableCompression: true,
	}
	return &HeaderTransport{
		inner:   inner,
		profile: profile,
		logger:  logger.With("component", "header_transport"),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.profile.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", t.profile.AcceptLanguage())
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	}
	if req.Header.Get("Sec-Fetch-Dest") == "" {
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Sec-Fetch-Site", "none")
		req.Header.Set("Sec-Fetch-User", "?1")
	}
	if req.Header.Get("Upgrade-Insecure-Requests") == "" {
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	}
	if req.Header.Get("Sec-Ch-Ua") == "" {
		req.Header.Set("Sec-Ch-Ua", `"Chromium";v="131", "Not_A Brand";v="24", "Google Chrome";v="131"`)
		req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
		req.Header.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	}

	return t.inner.RoundTrip(req)
}

// CloseIdleConnections closes idle connections of the inner transport.
func (t *HeaderTransport) CloseIdleConnections() {
	if c, ok := t.inner.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// browserTLSConfig creates a TLS config with a Chrome-like cipher order.
func browserTLSConfig() *tls.Config {
	return &tls.Config{
		CipherSuites: []uint16{
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
			tls.CurveP384,
		},
	}
}
