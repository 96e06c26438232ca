package model

// Quantity bounds of a single cart line.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// LineItem is one product entry of the cart. Price is the unit price in the
// smallest currency unit. The JSON layout is the one kept in the key-value
// store, so field names must stay stable.
type LineItem struct {
	ID       string `json:"id" validate:"required"`
	Price    int64  `json:"price" validate:"gte=0"`
	Quantity int    `json:"quantity"`
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Subtotal returns Price × Quantity.
func (i LineItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// HasVariant reports whether both color and size were chosen.
func (i LineItem) HasVariant() bool {
	return i.Color != "" && i.Size != ""
}

// LineView is a LineItem together with its formatted subtotal.
type LineView struct {
	LineItem
	Subtotal        int64  `json:"subtotal"`
	SubtotalDisplay string `json:"subtotal_display"`
}

// CartSummary is the derived, render-ready state of the cart.
type CartSummary struct {
	Items    []LineView `json:"items"`
	Count    int        `json:"count"`
	Total    int64      `json:"total"`
	Shipping int64      `json:"shipping"`
	Discount int64      `json:"discount"`
	Payable  int64      `json:"payable"`

	TotalDisplay    string `json:"total_display"`
	ShippingDisplay string `json:"shipping_display"`
	DiscountDisplay string `json:"discount_display"`
	PayableDisplay  string `json:"payable_display"`
}
