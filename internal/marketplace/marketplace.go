// Package marketplace maps domain codes to storefront URLs and validates
// catalog identifiers.
package marketplace

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultDomain is used when a domain code is empty or unknown.
const DefaultDomain = "us"

// Marketplace describes one regional storefront.
type Marketplace struct {
	Code    string
	Country string
	BaseURL string
}

// marketplaces is every storefront the fetch layer understands.
var marketplaces = map[string]Marketplace{
	"us": {Code: "us", Country: "United States", BaseURL: "https://www.amazon.com"},
	"uk": {Code: "uk", Country: "United Kingdom", BaseURL: "https://www.amazon.co.uk"},
	"de": {Code: "de", Country: "Germany", BaseURL: "https://www.amazon.de"},
	"jp": {Code: "jp", Country: "Japan", BaseURL: "https://www.amazon.co.jp"},
	"fr": {Code: "fr", Country: "France", BaseURL: "https://www.amazon.fr"},
	"it": {Code: "it", Country: "Italy", BaseURL: "https://www.amazon.it"},
	"es": {Code: "es", Country: "Spain", BaseURL: "https://www.amazon.es"},
	"ca": {Code: "ca", Country: "Canada", BaseURL: "https://www.amazon.ca"},
	"au": {Code: "au", Country: "Australia", BaseURL: "https://www.amazon.com.au"},
	"in": {Code: "in", Country: "India", BaseURL: "https://www.amazon.in"},
	"sg": {Code: "sg", Country: "Singapore", BaseURL: "https://www.amazon.sg"},
	"mx": {Code: "mx", Country: "Mexico", BaseURL: "https://www.amazon.com.mx"},
	"br": {Code: "br", Country: "Brazil", BaseURL: "https://www.amazon.com.br"},
	"ae": {Code: "ae", Country: "United Arab Emirates", BaseURL: "https://www.amazon.ae"},
}

// primary lists the codes offered at the orchestration boundary.
var primary = []string{"us", "uk", "de", "jp"}

// lookupAlias maps common aliases back to canonical codes.
var lookupAlias = map[string]string{
	"gb":  "uk",
	"com": "us",
}

var idPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Validate reports whether s is a well-formed catalog id: exactly ten
// characters, each an uppercase ASCII letter or a digit.
func Validate(s string) bool {
	return idPattern.MatchString(s)
}

// NormalizeID trims and uppercases a user-supplied id. It does not validate.
func NormalizeID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Lookup returns the storefront for code, falling back to the US storefront.
func Lookup(code string) Marketplace {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := lookupAlias[normalized]; ok {
		normalized = canonical
	}
	if m, ok := marketplaces[normalized]; ok {
		return m
	}
	return marketplaces[DefaultDomain]
}

// Known reports whether code names a storefront recognised by the fetch
// layer, directly or through an alias.
func Known(code string) bool {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if canonical, ok := lookupAlias[normalized]; ok {
		normalized = canonical
	}
	_, ok := marketplaces[normalized]
	return ok
}

// Primary returns the codes surfaced to end users.
func Primary() []string {
	return append([]string(nil), primary...)
}

// IsPrimary reports whether code is one of the user-facing codes.
func IsPrimary(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, p := range primary {
		if p == code {
			return true
		}
	}
	return false
}

// ProductURL returns the detail page address of id on the storefront.
func (m Marketplace) ProductURL(id string) string {
	return fmt.Sprintf("%s/dp/%s", m.BaseURL, url.PathEscape(id))
}

// SearchURL returns the address of a keyword search result page.
func (m Marketplace) SearchURL(keyword string, page int) string {
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("%s/s?k=%s&page=%d", m.BaseURL, url.QueryEscape(keyword), page)
}

// ScreenshotURL returns the detail page address with an optional display language.
func (m Marketplace) ScreenshotURL(id, language string) string {
	u := m.ProductURL(id)
	if language != "" {
		u += "?language=" + url.QueryEscape(language)
	}
	return u
}
