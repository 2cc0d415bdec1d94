package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/RivalScope/internal/marketplace"
	"github.com/IshaanNene/RivalScope/internal/types"
)

// Middleware processes a product and returns the (possibly modified) product.
// Return nil to drop the product from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a product. Return nil to drop it.
	Process(product *types.Product) (*types.Product, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new, empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// NewDefault creates the post-extraction pipeline every product passes through.
func NewDefault(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&TrimMiddleware{})
	p.Use(&PriceDefaultMiddleware{})
	p.Use(&EnumDefaultMiddleware{})
	p.Use(&CouponDefaultMiddleware{Default: DefaultCoupon})
	p.Use(&RelatedMiddleware{Max: MaxRelated})
	p.Use(&SellingPointMiddleware{MaxRunes: SellingPointRunes})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the product through all middleware in order.
func (p *Pipeline) Process(product *types.Product) (*types.Product, error) {
	if product == nil {
		return nil, nil
	}
	current := product

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				ID:    current.ID,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("product dropped", "stage", mw.Name(), "id", product.ID)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops products without a valid id or a title.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(product *types.Product) (*types.Product, error) {
	if !marketplace.Validate(product.ID) {
		return nil, nil
	}
	if strings.TrimSpace(product.Title) == "" {
		return nil, nil
	}
	return product, nil
}

// TrimMiddleware trims whitespace from all string fields and drops empty
// list entries.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(product *types.Product) (*types.Product, error) {
	for _, s := range stringFields(product) {
		*s = strings.TrimSpace(*s)
	}
	product.CategoryPath = trimList(product.CategoryPath)
	product.BulletPoints = trimList(product.BulletPoints)
	for i := range product.Reviews {
		r := &product.Reviews[i]
		r.Title = strings.TrimSpace(r.Title)
		r.Body = strings.TrimSpace(r.Body)
		r.Date = strings.TrimSpace(r.Date)
	}
	return product, nil
}

// PriceDefaultMiddleware fills promo and original prices from the current
// price and keeps original >= promo.
type PriceDefaultMiddleware struct{}

func (m *PriceDefaultMiddleware) Name() string { return "price_defaults" }

func (m *PriceDefaultMiddleware) Process(product *types.Product) (*types.Product, error) {
	if product.PriceCurrent == nil {
		return product, nil
	}
	if product.PricePromo == nil {
		product.PricePromo = types.Float(*product.PriceCurrent)
	}
	if product.PriceOriginal == nil || *product.PriceOriginal < *product.PricePromo {
		product.PriceOriginal = types.Float(*product.PricePromo)
	}
	return product, nil
}

// EnumDefaultMiddleware collapses empty tagged values to their Unknown kind.
type EnumDefaultMiddleware struct{}

func (m *EnumDefaultMiddleware) Name() string { return "enum_defaults" }

func (m *EnumDefaultMiddleware) Process(product *types.Product) (*types.Product, error) {
	if product.StockStatus.Kind == types.StockRaw && product.StockStatus.Text == "" {
		product.StockStatus = types.StockStatus{}
	}
	if product.Fulfillment.Kind == types.FulfillmentMerchant {
		product.Fulfillment.Carrier = strings.TrimSpace(product.Fulfillment.Carrier)
	}
	return product, nil
}

// CouponDefaultMiddleware sets a placeholder when no coupon was found.
type CouponDefaultMiddleware struct {
	Default string
}

func (m *CouponDefaultMiddleware) Name() string { return "coupon_default" }

func (m *CouponDefaultMiddleware) Process(product *types.Product) (*types.Product, error) {
	if product.Coupon == "" {
		product.Coupon = m.Default
	}
	return product, nil
}

func stringFields(p *types.Product) []*string {
	return []*string{
		&p.Title, &p.Brand, &p.MainImage, &p.BSRCategory, &p.VariantDimension,
		&p.Coupon, &p.Seller, &p.MainSellingPoint, &p.StockStatus.Text, &p.Fulfillment.Carrier,
	}
}

func trimList(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
