package model

// Product is an entry of the product grid.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	OldPrice *int64 `json:"old_price,omitempty"`
	Image    string `json:"image"`
}

// ToLineItem builds a single-quantity cart line for the product.
func (p Product) ToLineItem(color, size string) LineItem {
	return LineItem{
		ID:       p.ID,
		Price:    p.Price,
		Quantity: MinQuantity,
		Color:    color,
		Size:     size,
		Name:     p.Name,
		Image:    p.Image,
	}
}
