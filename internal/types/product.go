package types

// Product is the canonical record extracted from a single product page.
type Product struct {
	// ID is the 10-character catalog identifier (ASIN).
	ID string `json:"asin"`

	// Domain is the marketplace code the page was fetched from.
	Domain string `json:"domain,omitempty"`

	// URL is the product page address.
	URL string `json:"url,omitempty"`

	Title     string `json:"title"`
	Brand     string `json:"brand"`
	MainImage string `json:"main_image"`

	// PriceCurrent is the price shown as the buy-box price. PricePromo and
	// PriceOriginal only differ when a higher strikethrough price is shown.
	PriceCurrent  *float64 `json:"price_current"`
	PricePromo    *float64 `json:"price_promo"`
	PriceOriginal *float64 `json:"price_original"`

	// Rating is nil when no rating in [0, 5] could be read.
	Rating      *float64 `json:"rating"`
	ReviewCount int      `json:"review_count"`

	// BSR is the best-sellers rank, nil when absent.
	BSR         *int   `json:"bsr"`
	BSRCategory string `json:"bsr_category"`

	CategoryPath     []string `json:"category_path"`
	BulletPoints     []string `json:"bullet_points"`
	MainSellingPoint string   `json:"main_selling_point"`

	VariantCount     int    `json:"variant_count"`
	VariantDimension string `json:"variant_dimension"`

	Fulfillment Fulfillment `json:"fulfillment"`
	StockStatus StockStatus `json:"stock_status"`
	Coupon      string      `json:"coupon"`
	Seller      string      `json:"seller"`

	// RelatedASINs never contains ID and holds at most 20 entries.
	RelatedASINs []string `json:"related_asins"`

	Reviews []Review `json:"reviews"`
}

// Review is a single customer review block found on the product page.
type Review struct {
	// Stars is nil when the block carries no star rating.
	Stars *float64 `json:"stars"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Date  string   `json:"date"`
}

// ResultEntry is one organic or sponsored entry on a search result page.
type ResultEntry struct {
	// Rank is 1-based among entries that carry an id.
	Rank        int      `json:"rank"`
	ID          string   `json:"asin"`
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	Rating      *float64 `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Sponsored   bool     `json:"is_sponsored"`
}

// CompetitorRecord is a discovered competitor with its tier classification.
type CompetitorRecord struct {
	*Product
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
}

// ReviewSignals summarises the reviews of one product.
type ReviewSignals struct {
	PositiveKeywords []string `json:"positive_keywords"`
	NegativeKeywords []string `json:"negative_keywords"`
	TotalReviews     int      `json:"total"`
	PositiveCount    int      `json:"positive_count"`
	NegativeCount    int      `json:"negative_count"`
	Reviews          []Review `json:"reviews"`
}

// Ad flags reported in KeywordRankRow.AdFlag.
const (
	AdFlagSponsored = "sponsored"
	AdFlagOrganic   = "organic"
	AdFlagNotFound  = "-"
)

// KeywordRankRow is the rank of one tracked product for one keyword.
// NaturalRank is nil when the product did not appear in the searched pages.
type KeywordRankRow struct {
	Keyword     string `json:"keyword"`
	Product     string `json:"product"`
	NaturalRank *int   `json:"natural_rank"`
	AdFlag      string `json:"ad_flag"`
}

// Clone creates a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.PriceCurrent = cloneFloat(p.PriceCurrent)
	clone.PricePromo = cloneFloat(p.PricePromo)
	clone.PriceOriginal = cloneFloat(p.PriceOriginal)
	clone.Rating = cloneFloat(p.Rating)
	if p.BSR != nil {
		v := *p.BSR
		clone.BSR = &v
	}
	clone.CategoryPath = append([]string(nil), p.CategoryPath...)
	clone.BulletPoints = append([]string(nil), p.BulletPoints...)
	clone.RelatedASINs = append([]string(nil), p.RelatedASINs...)
	if p.Reviews != nil {
		clone.Reviews = make([]Review, len(p.Reviews))
		for i, r := range p.Reviews {
			r.Stars = cloneFloat(r.Stars)
			clone.Reviews[i] = r
		}
	}
	return &clone
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
