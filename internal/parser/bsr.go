package parser

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var bsrRe = regexp.MustCompile(`#([\d,.]+)\s+in\s+(.+?)(?:\(|$)`)

// bsrLabel is the row label of the best-sellers rank in product detail tables.
const bsrLabel = "Best Sellers Rank"

// BSRLocator finds the best-sellers rank using XPath over the raw HTML.
type BSRLocator struct {
	logger *slog.Logger
}

// NewBSRLocator creates a new best-sellers rank locator.
func NewBSRLocator(logger *slog.Logger) *BSRLocator {
	return &BSRLocator{
		logger: logger.With("component", "bsr_locator"),
	}
}

// Locate returns the rank and category. It first reads the labelled table row
// and falls back to scanning any element whose own text carries the label.
func (l *BSRLocator) Locate(body []byte) (int, string, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		l.logger.Debug("html parse failed", "error", err)
		return 0, "", false
	}

	cells, err := htmlquery.QueryAll(doc,
		`//th[contains(lower-case(normalize-space(.)), 'best sellers rank')]/following-sibling::td[1]`)
	if err != nil {
		l.logger.Warn("invalid xpath", "error", err)
	}
	for _, cell := range cells {
		if rank, category, ok := matchBSR(htmlquery.InnerText(cell)); ok {
			return rank, category, true
		}
	}

	labels, err := htmlquery.QueryAll(doc, `//*[text()[contains(., '`+bsrLabel+`')]]`)
	if err != nil {
		l.logger.Warn("invalid xpath", "error", err)
		return 0, "", false
	}
	for _, node := range labels {
		// The label often sits in its own bold span; the rank is in the parent.
		for n, depth := node, 0; n != nil && depth < 2; n, depth = n.Parent, depth+1 {
			if rank, category, ok := matchBSR(htmlquery.InnerText(n)); ok {
				return rank, category, true
			}
		}
	}

	return 0, "", false
}

// matchBSR parses "#1,234 in Category (See Top 100 ...)".
func matchBSR(text string) (int, string, bool) {
	m := bsrRe.FindStringSubmatch(cleanText(text))
	if m == nil {
		return 0, "", false
	}
	rank, err := strconv.Atoi(strings.NewReplacer(",", "", ".", "").Replace(m[1]))
	if err != nil || rank <= 0 {
		return 0, "", false
	}
	return rank, strings.TrimSpace(m[2]), true
}
