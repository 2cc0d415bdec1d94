package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locator resolves an optional string value from a document. It reports false
// when the value is absent or empty.
type Locator func(doc *goquery.Selection) (string, bool)

// Text returns a locator yielding the normalized text of the first element
// matching selector.
func Text(selector string) Locator {
	return func(doc *goquery.Selection) (string, bool) {
		val := cleanText(doc.Find(selector).First().Text())
		return val, val != ""
	}
}

// Attr returns a locator yielding the first non-empty attribute, tried in
// order, of the first element matching selector.
func Attr(selector string, attrs ...string) Locator {
	return func(doc *goquery.Selection) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		for _, attr := range attrs {
			if val, ok := sel.Attr(attr); ok {
				if val = strings.TrimSpace(val); val != "" {
					return val, true
				}
			}
		}
		return "", false
	}
}

// Map wraps a locator and transforms its value. An empty result counts as absent.
func Map(loc Locator, fn func(string) string) Locator {
	return func(doc *goquery.Selection) (string, bool) {
		val, ok := loc(doc)
		if !ok {
			return "", false
		}
		val = fn(val)
		return val, val != ""
	}
}

// Resolve applies locators in order and returns the first present value.
func Resolve(doc *goquery.Selection, locators []Locator) (string, bool) {
	for _, loc := range locators {
		if val, ok := loc(doc); ok {
			return val, true
		}
	}
	return "", false
}

// texts returns the normalized, non-empty text of every element matching selector.
func texts(doc *goquery.Selection, selector string) []string {
	var values []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if val := cleanText(sel.Text()); val != "" {
			values = append(values, val)
		}
	})
	return values
}

// firstNonEmptyList returns the first selector result that matched anything.
func firstNonEmptyList(doc *goquery.Selection, selectors ...string) []string {
	for _, selector := range selectors {
		if values := texts(doc, selector); len(values) > 0 {
			return values
		}
	}
	return nil
}

// cleanText trims and collapses whitespace runs to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
