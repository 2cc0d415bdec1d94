package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/RivalScope/internal/types"
)

var (
	searchTitleLocators = []Locator{
		Text("h2 a span"),
		Text("h2 span"),
	}
	searchPriceLocators  = []Locator{Text("span.a-price span.a-offscreen")}
	searchRatingLocators = []Locator{Text("span.a-icon-alt")}
	searchCountLocators  = []Locator{
		Text("span.a-size-base.s-underline-text"),
		Text("[aria-label*='stars'] + span"),
		Text("a[href*='customerReviews'] span"),
	}
	sponsoredSelector = "[data-component-type='sp-sponsored-result'], .s-label-popover-default"
)

// SearchParser extracts ranked entries from search result pages.
type SearchParser struct {
	logger *slog.Logger
}

// NewSearchParser creates a new search result parser.
func NewSearchParser(logger *slog.Logger) *SearchParser {
	return &SearchParser{
		logger: logger.With("component", "search_parser"),
	}
}

// ExtractSearchResults implements SearchExtractor.
func (p *SearchParser) ExtractSearchResults(body []byte) ([]types.ResultEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	entries := make([]types.ResultEntry, 0)
	skipped := 0
	doc.Find("[data-component-type='s-search-result']").Each(func(_ int, item *goquery.Selection) {
		id := strings.TrimSpace(item.AttrOr("data-asin", ""))
		if id == "" {
			skipped++
			return
		}

		entry := types.ResultEntry{
			Rank:      len(entries) + 1,
			ID:        id,
			Sponsored: item.Find(sponsoredSelector).Length() > 0,
		}
		entry.Title, _ = Resolve(item, searchTitleLocators)
		if text, ok := Resolve(item, searchPriceLocators); ok {
			if v, ok := ParseNumber(text); ok {
				entry.Price = types.Float(v)
			}
		}
		if text, ok := Resolve(item, searchRatingLocators); ok {
			if v, ok := ParseNumber(text); ok {
				entry.Rating = types.Float(v)
			}
		}
		if text, ok := Resolve(item, searchCountLocators); ok {
			entry.ReviewCount = ParseCount(text)
		}
		entries = append(entries, entry)
	})

	p.logger.Debug("search page extracted", "entries", len(entries), "skipped", skipped)
	return entries, nil
}
