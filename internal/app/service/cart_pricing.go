package service

import (
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/util"
	"github.com/samber/lo"
)

// PricingRules holds the shipping policy: the flat fee is waived once the
// total is strictly above the threshold.
type PricingRules struct {
	ShippingThreshold int64
	ShippingFee       int64
}

// DefaultPricingRules waives 30000 shipping above 500000.
var DefaultPricingRules = PricingRules{
	ShippingThreshold: 500000,
	ShippingFee:       30000,
}

// Shipping returns the fee owed for total.
func (r PricingRules) Shipping(total int64) int64 {
	if total > r.ShippingThreshold {
		return 0
	}
	return r.ShippingFee
}

// Summarize derives totals and display values from items and discount. It has
// no side effects.
func Summarize(items []model.LineItem, discount int64, rules PricingRules, f *util.PriceFormatter) model.CartSummary {
	total := lo.SumBy(items, func(item model.LineItem) int64 {
		return item.Subtotal()
	})
	shipping := rules.Shipping(total)
	payable := max(total+shipping-discount, 0)

	views := lo.Map(items, func(item model.LineItem, _ int) model.LineView {
		return model.LineView{
			LineItem:        item,
			Subtotal:        item.Subtotal(),
			SubtotalDisplay: f.Format(item.Subtotal()),
		}
	})

	return model.CartSummary{
		Items: views,
		Count: lo.SumBy(items, func(item model.LineItem) int {
			return item.Quantity
		}),
		Total:    total,
		Shipping: shipping,
		Discount: discount,
		Payable:  payable,

		TotalDisplay:    f.Format(total),
		ShippingDisplay: f.FormatShipping(shipping),
		DiscountDisplay: f.Format(discount),
		PayableDisplay:  f.Format(payable),
	}
}
