package types

import (
	"fmt"
	"strings"
)

// FulfillmentKind identifies who ships an order.
type FulfillmentKind int

const (
	FulfillmentUnknown     FulfillmentKind = 0
	FulfillmentMarketplace FulfillmentKind = 1
	FulfillmentMerchant    FulfillmentKind = 2
)

// Fulfillment is the shipping arrangement of a product. Carrier holds the raw
// "ships from" text for merchant-fulfilled offers.
type Fulfillment struct {
	Kind    FulfillmentKind
	Carrier string
}

// MarketplaceFulfilled returns a platform-fulfilled value.
func MarketplaceFulfilled() Fulfillment {
	return Fulfillment{Kind: FulfillmentMarketplace}
}

// MerchantFulfilled returns a seller-fulfilled value shipping from carrier.
func MerchantFulfilled(carrier string) Fulfillment {
	return Fulfillment{Kind: FulfillmentMerchant, Carrier: carrier}
}

func (f Fulfillment) String() string {
	switch f.Kind {
	case FulfillmentMarketplace:
		return "marketplace"
	case FulfillmentMerchant:
		if f.Carrier == "" {
			return "merchant"
		}
		return fmt.Sprintf("merchant (%s)", f.Carrier)
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Fulfillment) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fulfillment) UnmarshalText(text []byte) error {
	s := string(text)
	switch {
	case s == "marketplace":
		*f = MarketplaceFulfilled()
	case s == "merchant":
		*f = MerchantFulfilled("")
	case strings.HasPrefix(s, "merchant (") && strings.HasSuffix(s, ")"):
		*f = MerchantFulfilled(s[len("merchant (") : len(s)-1])
	default:
		*f = Fulfillment{}
	}
	return nil
}

// StockKind is the controlled vocabulary for availability text.
type StockKind int

const (
	StockUnknown    StockKind = 0
	StockInStock    StockKind = 1
	StockLow        StockKind = 2
	StockOutOfStock StockKind = 3
	StockRaw        StockKind = 4
)

// StockStatus is the availability of a product. Text keeps the original
// availability message for StockLow and StockRaw.
type StockStatus struct {
	Kind StockKind
	Text string
}

func (s StockStatus) String() string {
	switch s.Kind {
	case StockInStock:
		return "in_stock"
	case StockLow:
		return fmt.Sprintf("low_stock (%s)", s.Text)
	case StockOutOfStock:
		return "out_of_stock"
	case StockRaw:
		return s.Text
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s StockStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StockStatus) UnmarshalText(text []byte) error {
	v := string(text)
	switch {
	case v == "" || v == "unknown":
		*s = StockStatus{}
	case v == "in_stock":
		*s = StockStatus{Kind: StockInStock}
	case v == "out_of_stock":
		*s = StockStatus{Kind: StockOutOfStock}
	case strings.HasPrefix(v, "low_stock (") && strings.HasSuffix(v, ")"):
		*s = StockStatus{Kind: StockLow, Text: v[len("low_stock (") : len(v)-1]}
	default:
		*s = StockStatus{Kind: StockRaw, Text: v}
	}
	return nil
}

// Tier is the coarse competitive classification of a competitor.
type Tier string

const (
	TierTop           Tier = "top"
	TierBenchmark     Tier = "benchmark"
	TierPotential     Tier = "potential"
	TierManuallyAdded Tier = "manual"
)
