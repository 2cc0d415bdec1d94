package types

import "time"

// Page is the raw result of fetching a URL.
type Page struct {
	// URL is the address that was requested.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// Body is the captured HTML.
	Body []byte

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration

	// FetchedAt is when the HTML was captured.
	FetchedAt time.Time
}

// NewPage creates a Page from captured HTML.
func NewPage(url, finalURL string, body []byte, duration time.Duration) *Page {
	if finalURL == "" {
		finalURL = url
	}
	return &Page{
		URL:           url,
		FinalURL:      finalURL,
		Body:          body,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// HTML returns the body as a string.
func (p *Page) HTML() string {
	return string(p.Body)
}
