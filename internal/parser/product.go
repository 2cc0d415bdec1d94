package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/RivalScope/internal/types"
)

// MaxRelated caps the number of related ids kept per product.
const MaxRelated = 20

var (
	brandPrefixRe = regexp.MustCompile(`^(Visit the |Brand:\s*)`)
	brandSuffixRe = regexp.MustCompile(`\s*Store$`)
	dpLinkRe      = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
)

// Ordered strategies per field. The first one yielding a value wins.
var (
	titleLocators = []Locator{Text("#productTitle")}

	brandLocators = []Locator{
		Map(Text("#bylineInfo"), cleanBrand),
		Map(Text("a#bylineInfo"), cleanBrand),
	}

	imageLocators = []Locator{
		Attr("#landingImage", "data-old-hires", "src"),
		Attr("#imgTagWrapperId img", "data-old-hires", "src"),
		Attr("#main-image-container img", "data-old-hires", "src"),
		Attr("#imageBlock img", "data-old-hires", "src"),
	}

	priceSelectors = []string{
		"span.a-price:not([data-a-strike]) span.a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		"#price_inside_buybox",
		"span.a-price span.a-offscreen",
	}

	strikeLocators = []Locator{Text("span.a-price[data-a-strike='true'] span.a-offscreen")}

	ratingLocators = []Locator{
		Text("span[data-hook='rating-out-of-text']"),
		Text("#acrPopover"),
	}

	reviewCountLocators = []Locator{Text("#acrCustomerReviewText")}

	breadcrumbSelectors = []string{
		"#wayfinding-breadcrumbs_container a",
		".a-breadcrumb a",
	}

	variantSelector   = "#variation_size_name li, #variation_color_name li, #variation_style_name li"
	dimensionLocators = []Locator{
		Map(Text("#variation_size_name .a-form-label, #variation_color_name .a-form-label, #variation_style_name .a-form-label"),
			func(s string) string { return strings.TrimSpace(strings.TrimRight(s, ":")) }),
	}

	fulfillmentFallbackLocators = []Locator{Text("#fulfilledBy, #deliveryShortLine")}

	stockLocators  = []Locator{Text("#availability span")}
	couponLocators = []Locator{Text("#couponBadgeRegularVpc, #vpcButton")}
	sellerLocators = []Locator{
		Text("#merchant-info"),
		Text("#sellerProfileTriggerId"),
	}
)

// ProductParser extracts Product records from product detail pages.
type ProductParser struct {
	logger *slog.Logger
	bsr    *BSRLocator
}

// NewProductParser creates a new product page parser.
func NewProductParser(logger *slog.Logger) *ProductParser {
	return &ProductParser{
		logger: logger.With("component", "product_parser"),
		bsr:    NewBSRLocator(logger),
	}
}

// ExtractProduct implements ProductExtractor.
func (p *ProductParser) ExtractProduct(body []byte, id string) (*types.Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{URL: id, Field: "document", Err: fmt.Errorf("%w: %v", types.ErrParseFailure, err)}
	}
	root := doc.Selection

	title, ok := Resolve(root, titleLocators)
	if !ok {
		return nil, &types.ParseError{URL: id, Field: "title", Err: types.ErrParseFailure}
	}

	product := &types.Product{ID: id, Title: title}
	product.Brand, _ = Resolve(root, brandLocators)
	product.MainImage, _ = Resolve(root, imageLocators)

	p.extractPrices(root, product)

	if text, ok := Resolve(root, ratingLocators); ok {
		if v, ok := ParseNumber(text); ok && v > 0 && v <= 5 {
			product.Rating = types.Float(v)
		}
	}
	if text, ok := Resolve(root, reviewCountLocators); ok {
		product.ReviewCount = ParseCount(text)
	}

	if rank, category, ok := p.bsr.Locate(body); ok {
		product.BSR = types.Int(rank)
		product.BSRCategory = category
	}

	product.CategoryPath = firstNonEmptyList(root, breadcrumbSelectors...)
	if len(product.CategoryPath) == 0 && product.BSRCategory != "" {
		product.CategoryPath = []string{product.BSRCategory}
	}

	product.BulletPoints = texts(root, "#feature-bullets li span.a-list-item")

	if n := root.Find(variantSelector).Length(); n > 0 {
		product.VariantCount = n
		product.VariantDimension, _ = Resolve(root, dimensionLocators)
	} else {
		product.VariantCount = root.Find("#twister .a-button-text").Length()
	}

	product.Fulfillment = extractFulfillment(root)
	product.StockStatus = extractStock(root)

	product.Coupon, _ = Resolve(root, couponLocators)
	product.Seller, _ = Resolve(root, sellerLocators)
	product.RelatedASINs = extractRelated(root, id)
	product.Reviews = extractReviews(root)

	p.logger.Debug("product extracted",
		"id", id,
		"price", product.PriceCurrent != nil,
		"bsr", product.BSR != nil,
		"related", len(product.RelatedASINs),
		"reviews", len(product.Reviews),
	)

	return product, nil
}

// extractPrices sets current, promo and original prices. Original only
// differs from current when a higher strikethrough price is shown.
func (p *ProductParser) extractPrices(root *goquery.Selection, product *types.Product) {
	for _, selector := range priceSelectors {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v, ok := ParseNumber(sel.Text()); ok && v > 0 {
			product.PriceCurrent = types.Float(v)
			break
		}
	}

	current := product.PriceCurrent
	product.PricePromo = current
	product.PriceOriginal = current
	if current == nil {
		return
	}

	if text, ok := Resolve(root, strikeLocators); ok {
		if strike, ok := ParseNumber(text); ok && strike > *current {
			product.PriceOriginal = types.Float(strike)
		}
	}
}

func extractFulfillment(root *goquery.Selection) types.Fulfillment {
	shipsFrom := ""
	root.Find("div.offer-display-feature-label").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(label.Text()), "ships from") {
			return true
		}
		value := label.NextAllFiltered("div.offer-display-feature-text").First()
		if value.Length() > 0 {
			if span := value.Find("span.a-size-small").First(); span.Length() > 0 {
				shipsFrom = cleanText(span.Text())
			} else {
				shipsFrom = cleanText(value.Text())
			}
		}
		return false
	})

	if shipsFrom == "" {
		text, ok := Resolve(root, fulfillmentFallbackLocators)
		if !ok {
			return types.Fulfillment{}
		}
		shipsFrom = text
	}

	if strings.Contains(strings.ToLower(shipsFrom), "amazon") {
		return types.MarketplaceFulfilled()
	}
	return types.MerchantFulfilled(shipsFrom)
}

func extractStock(root *goquery.Selection) types.StockStatus {
	text, ok := Resolve(root, stockLocators)
	if !ok {
		return types.StockStatus{}
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "in stock"):
		return types.StockStatus{Kind: types.StockInStock}
	case strings.Contains(lower, "only") && strings.Contains(lower, "left"):
		return types.StockStatus{Kind: types.StockLow, Text: text}
	case strings.Contains(lower, "unavailable") || strings.Contains(lower, "out of stock"):
		return types.StockStatus{Kind: types.StockOutOfStock}
	default:
		return types.StockStatus{Kind: types.StockRaw, Text: text}
	}
}

// extractRelated collects distinct /dp/ ids linked from the page, excluding
// self. The result is sorted and capped at MaxRelated.
func extractRelated(root *goquery.Selection, self string) []string {
	seen := make(map[string]bool)
	root.Find("a[href*='/dp/']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := dpLinkRe.FindStringSubmatch(href)
		if m == nil || m[1] == self {
			return
		}
		seen[m[1]] = true
	})

	related := make([]string, 0, len(seen))
	for id := range seen {
		related = append(related, id)
	}
	sort.Strings(related)
	if len(related) > MaxRelated {
		related = related[:MaxRelated]
	}
	return related
}

func extractReviews(root *goquery.Selection) []types.Review {
	var reviews []types.Review
	root.Find("[data-hook='review']").Each(func(_ int, block *goquery.Selection) {
		review := types.Review{
			Title: cleanText(block.Find("[data-hook='review-title'] span:last-child").First().Text()),
			Body:  cleanText(block.Find("[data-hook='review-body'] span").First().Text()),
			Date:  cleanText(block.Find("[data-hook='review-date']").First().Text()),
		}
		stars := block.Find("[data-hook='review-star-rating'] span, [data-hook='cmps-review-star-rating'] span").First()
		if stars.Length() > 0 {
			if v, ok := ParseNumber(stars.Text()); ok && v >= 1 && v <= 5 {
				review.Stars = types.Float(v)
			}
		}
		if review.Title != "" || review.Body != "" {
			reviews = append(reviews, review)
		}
	})
	return reviews
}

func cleanBrand(s string) string {
	s = brandPrefixRe.ReplaceAllString(s, "")
	s = brandSuffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
