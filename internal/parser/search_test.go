package parser

import (
	"testing"
)

const searchHTML = `<html><body>
<div class="s-main-slot">
    <div data-component-type="s-search-result" data-asin="B0000000S1">
        <div class="s-label-popover-default"><span>Sponsored</span></div>
        <h2><a href="/dp/B0000000S1"><span>Sponsored Mug</span></a></h2>
        <span class="a-price"><span class="a-offscreen">$24.95</span></span>
        <span class="a-icon-alt">4.3 out of 5 stars</span>
        <span class="a-size-base s-underline-text">2,480</span>
    </div>
    <div data-component-type="s-search-result" data-asin="">
        <h2><span>Editorial widget</span></h2>
    </div>
    <div data-component-type="s-search-result" data-asin="B0000000O1">
        <h2><span>Organic Mug</span></h2>
        <span class="a-icon-alt">4.8 out of 5 stars</span>
        <a href="/product-reviews/B0000000O1#customerReviews"><span>(312)</span></a>
    </div>
    <div data-component-type="s-search-result" data-asin="B0000000O2">
        <h2><a><span>Plain Mug</span></a></h2>
    </div>
</div>
</body></html>`

func TestExtractSearchResults(t *testing.T) {
	p := NewSearchParser(testLogger)
	entries, err := p.ExtractSearchResults([]byte(searchHTML))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// The idless entry is skipped and does not consume a rank.
	for i, want := range []string{"B0000000S1", "B0000000O1", "B0000000O2"} {
		if entries[i].ID != want || entries[i].Rank != i+1 {
			t.Errorf("entry %d: expected %s at rank %d, got %s at %d", i, want, i+1, entries[i].ID, entries[i].Rank)
		}
	}

	first := entries[0]
	if !first.Sponsored {
		t.Error("expected first entry to be sponsored")
	}
	if first.Title != "Sponsored Mug" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Price == nil || *first.Price != 24.95 {
		t.Errorf("expected price 24.95, got %v", first.Price)
	}
	if first.Rating == nil || *first.Rating != 4.3 {
		t.Errorf("expected rating 4.3, got %v", first.Rating)
	}
	if first.ReviewCount != 2480 {
		t.Errorf("expected 2480 reviews, got %d", first.ReviewCount)
	}

	second := entries[1]
	if second.Sponsored {
		t.Error("expected second entry to be organic")
	}
	if second.Title != "Organic Mug" || second.Price != nil {
		t.Errorf("unexpected second entry %+v", second)
	}
	if second.ReviewCount != 312 {
		t.Errorf("expected 312 reviews, got %d", second.ReviewCount)
	}
}

func TestExtractSearchResultsEmptyPage(t *testing.T) {
	p := NewSearchParser(testLogger)
	entries, err := p.ExtractSearchResults([]byte(`<html><body><p>No results</p></body></html>`))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected an empty, non-nil slice, got %v", entries)
	}
}
