package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/RivalScope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const productHTML = `<!DOCTYPE html>
<html>
<head><title>Amazon.com: Stainless Steel Travel Mug</title></head>
<body>
<div id="wayfinding-breadcrumbs_container">
    <ul>
        <li><a href="/kitchen">Home &amp; Kitchen</a></li>
        <li><a href="/drinkware">Kitchen &amp; Dining</a></li>
        <li><a href="/mugs">Travel Mugs</a></li>
    </ul>
</div>
<span id="productTitle">
    Stainless Steel   Travel Mug, 20oz
</span>
<a id="bylineInfo" href="/stores/acme">Visit the Acme Store</a>
<div id="imgTagWrapperId">
    <img id="landingImage" src="https://m.media-amazon.com/small.jpg" data-old-hires="https://m.media-amazon.com/large.jpg">
</div>
<div id="corePrice">
    <span class="a-price"><span class="a-offscreen">$19.99</span></span>
    <span class="a-price" data-a-strike="true"><span class="a-offscreen">$29.99</span></span>
</div>
<span id="acrPopover"><span data-hook="rating-out-of-text">4.6 out of 5</span></span>
<span id="acrCustomerReviewText">1,234 ratings</span>
<div id="feature-bullets">
    <ul>
        <li><span class="a-list-item">Keeps drinks hot for 12 hours</span></li>
        <li><span class="a-list-item">  Leak-proof lid  </span></li>
        <li><span class="a-list-item"></span></li>
    </ul>
</div>
<div id="variation_color_name">
    <label class="a-form-label">Color:</label>
    <ul><li>Black</li><li>Silver</li><li>Red</li></ul>
</div>
<div class="offer-display-features">
    <div class="offer-display-feature-label"><span>Ships from</span></div>
    <div class="offer-display-feature-text"><span class="a-size-small">Amazon.com</span><span class="a-size-small">Amazon.com</span></div>
</div>
<div id="availability"><span>  Only 3 left - order soon. </span></div>
<div id="merchant-info">Sold by Acme Direct</div>
<table id="productDetails_detailBullets_sections1">
    <tr><th> Best Sellers Rank </th><td><span><span>#1,234 in Home &amp; Kitchen (<a href="/top">See Top 100</a>)</span><br><span>#5 in Travel Mugs</span></span></td></tr>
</table>
<div id="similar">
    <a href="/dp/B000000001">Self link</a>
    <a href="/Acme-Mug/dp/B00000000B/ref=sr_1">Mug B</a>
    <a href="/dp/B00000000A?th=1">Mug A</a>
    <a href="https://www.amazon.com/dp/B00000000B">Mug B again</a>
    <a href="/gp/help">Help</a>
</div>
<div id="cm-cr-dp-review-list">
    <div data-hook="review">
        <i data-hook="review-star-rating"><span class="a-icon-alt">5.0 out of 5 stars</span></i>
        <a data-hook="review-title"><span>5.0 out of 5 stars</span><span>Great mug</span></a>
        <span data-hook="review-date">Reviewed in the United States on May 1, 2024</span>
        <span data-hook="review-body"><span>Keeps coffee hot all day.</span></span>
    </div>
    <div data-hook="review">
        <i data-hook="review-star-rating"><span class="a-icon-alt">2.0 out of 5 stars</span></i>
        <a data-hook="review-title"><span>2.0 out of 5 stars</span><span>Leaks</span></a>
        <span data-hook="review-body"><span>The lid leaks in my bag.</span></span>
    </div>
    <div data-hook="review">
        <span data-hook="review-date">Reviewed on June 2, 2024</span>
    </div>
</div>
</body>
</html>`

func extract(t *testing.T, html, id string) *types.Product {
	t.Helper()
	p := NewProductParser(testLogger)
	product, err := p.ExtractProduct([]byte(html), id)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return product
}

func TestExtractProductFields(t *testing.T) {
	product := extract(t, productHTML, "B000000001")

	if product.Title != "Stainless Steel Travel Mug, 20oz" {
		t.Errorf("unexpected title %q", product.Title)
	}
	if product.Brand != "Acme" {
		t.Errorf("expected brand Acme, got %q", product.Brand)
	}
	if product.MainImage != "https://m.media-amazon.com/large.jpg" {
		t.Errorf("expected hi-res image, got %q", product.MainImage)
	}
	if product.ReviewCount != 1234 {
		t.Errorf("expected 1234 reviews, got %d", product.ReviewCount)
	}
	if product.Rating == nil || *product.Rating != 4.6 {
		t.Errorf("expected rating 4.6, got %v", product.Rating)
	}
	if got := strings.Join(product.CategoryPath, " > "); got != "Home & Kitchen > Kitchen & Dining > Travel Mugs" {
		t.Errorf("unexpected category path %q", got)
	}
	if len(product.BulletPoints) != 2 || product.BulletPoints[1] != "Leak-proof lid" {
		t.Errorf("unexpected bullets %q", product.BulletPoints)
	}
	if product.VariantCount != 3 || product.VariantDimension != "Color" {
		t.Errorf("expected 3 Color variants, got %d %q", product.VariantCount, product.VariantDimension)
	}
	if product.Fulfillment.Kind != types.FulfillmentMarketplace {
		t.Errorf("expected marketplace fulfillment, got %s", product.Fulfillment)
	}
	if product.StockStatus.Kind != types.StockLow || product.StockStatus.Text != "Only 3 left - order soon." {
		t.Errorf("unexpected stock status %s", product.StockStatus)
	}
	if product.Seller != "Sold by Acme Direct" {
		t.Errorf("unexpected seller %q", product.Seller)
	}
	if product.Coupon != "" {
		t.Errorf("expected no coupon before defaulting, got %q", product.Coupon)
	}
}

func TestExtractProductPrices(t *testing.T) {
	product := extract(t, productHTML, "B000000001")
	if product.PriceCurrent == nil || *product.PriceCurrent != 19.99 {
		t.Fatalf("expected current price 19.99, got %v", product.PriceCurrent)
	}
	if *product.PricePromo != 19.99 || *product.PriceOriginal != 29.99 {
		t.Errorf("expected promo 19.99 / original 29.99, got %v / %v", *product.PricePromo, *product.PriceOriginal)
	}

	// A strikethrough below the current price carries no discount signal.
	lowStrike := strings.Replace(productHTML, "$29.99", "$15.00", 1)
	product = extract(t, lowStrike, "B000000001")
	if *product.PriceOriginal != 19.99 || *product.PricePromo != 19.99 {
		t.Errorf("expected original = promo = current, got %v / %v", *product.PriceOriginal, *product.PricePromo)
	}

	noPrice := `<html><body><span id="productTitle">Mug</span></body></html>`
	product = extract(t, noPrice, "B000000001")
	if product.PriceCurrent != nil || product.PricePromo != nil || product.PriceOriginal != nil {
		t.Error("expected absent prices")
	}
}

func TestExtractProductRatingCap(t *testing.T) {
	html := `<html><body><span id="productTitle">Mug</span>
<span data-hook="rating-out-of-text">45 out of 5</span></body></html>`
	product := extract(t, html, "B000000001")
	if product.Rating != nil {
		t.Errorf("expected rating above 5 to be rejected, got %v", *product.Rating)
	}
}

func TestExtractProductBSRTable(t *testing.T) {
	product := extract(t, productHTML, "B000000001")
	if product.BSR == nil || *product.BSR != 1234 {
		t.Fatalf("expected BSR 1234, got %v", product.BSR)
	}
	if product.BSRCategory != "Home & Kitchen" {
		t.Errorf("expected category Home & Kitchen, got %q", product.BSRCategory)
	}
}

func TestExtractProductBSRFreeText(t *testing.T) {
	html := `<html><body><span id="productTitle">Mug</span>
<div id="detailBulletsWrapper_feature_div">
    <ul><li><span><span class="a-text-bold">Best Sellers Rank:</span> #45 in Kitchen &amp; Dining (See Top 100 in Kitchen &amp; Dining)</span></li></ul>
</div></body></html>`
	product := extract(t, html, "B000000001")
	if product.BSR == nil || *product.BSR != 45 {
		t.Fatalf("expected BSR 45, got %v", product.BSR)
	}
	if product.BSRCategory != "Kitchen & Dining" {
		t.Errorf("unexpected category %q", product.BSRCategory)
	}
	// Without breadcrumbs the category path falls back to the BSR category.
	if len(product.CategoryPath) != 1 || product.CategoryPath[0] != "Kitchen & Dining" {
		t.Errorf("expected category fallback, got %q", product.CategoryPath)
	}
}

func TestExtractProductRelated(t *testing.T) {
	product := extract(t, productHTML, "B000000001")
	want := []string{"B00000000A", "B00000000B"}
	if strings.Join(product.RelatedASINs, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, product.RelatedASINs)
	}

	var links strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&links, `<a href="/dp/B0000000%02d">x</a>`, i)
	}
	html := `<html><body><span id="productTitle">Mug</span>` + links.String() + `</body></html>`
	product = extract(t, html, "B000000005")
	if len(product.RelatedASINs) != MaxRelated {
		t.Fatalf("expected %d related ids, got %d", MaxRelated, len(product.RelatedASINs))
	}
	for _, id := range product.RelatedASINs {
		if id == "B000000005" {
			t.Error("related ids must not include the product itself")
		}
	}
}

func TestExtractProductReviews(t *testing.T) {
	product := extract(t, productHTML, "B000000001")
	if len(product.Reviews) != 2 {
		t.Fatalf("expected 2 reviews (date-only block dropped), got %d", len(product.Reviews))
	}
	first := product.Reviews[0]
	if first.Stars == nil || *first.Stars != 5 {
		t.Errorf("expected 5 stars, got %v", first.Stars)
	}
	if first.Title != "Great mug" || first.Body != "Keeps coffee hot all day." {
		t.Errorf("unexpected review %+v", first)
	}
	if first.Date == "" {
		t.Error("expected review date")
	}
}

func TestExtractProductMerchantFulfillment(t *testing.T) {
	html := `<html><body><span id="productTitle">Mug</span>
<div id="deliveryShortLine">Ships from UPS Ground</div>
<div id="availability"><span>Currently unavailable.</span></div></body></html>`
	product := extract(t, html, "B000000001")
	if product.Fulfillment.Kind != types.FulfillmentMerchant || product.Fulfillment.Carrier != "Ships from UPS Ground" {
		t.Errorf("unexpected fulfillment %s", product.Fulfillment)
	}
	if product.StockStatus.Kind != types.StockOutOfStock {
		t.Errorf("expected out of stock, got %s", product.StockStatus)
	}
}

func TestExtractProductNoTitle(t *testing.T) {
	p := NewProductParser(testLogger)
	product, err := p.ExtractProduct([]byte(`<html><body><h1>Robot Check</h1></body></html>`), "B000000001")
	if product != nil {
		t.Error("expected nil product")
	}
	if !errors.Is(err, types.ErrParseFailure) {
		t.Errorf("expected ErrParseFailure, got %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,299.99", 1299.99, true},
		{"19,99 €", 19.99, true},
		{"1.234,56 €", 1234.56, true},
		{"4.5 out of 5 stars", 4.5, true},
		{"¥1,980", 1980, true},
		{"no digits", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	if n := ParseCount("(12,345)"); n != 12345 {
		t.Errorf("ParseCount = %d, want 12345", n)
	}
	if n := ParseCount("none"); n != 0 {
		t.Errorf("ParseCount = %d, want 0", n)
	}
}
