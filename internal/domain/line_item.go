package domain

// LineItem holds the fields every selection carries, copied from the product
// when it was picked.
type LineItem struct {
	ShoeID string `json:"ShoeId"`
	Brand  string `json:"Brand"`
	Model  string `json:"Model"`
	Price  Price  `json:"Price"`
	Size   string `json:"Size"`
}

func (l LineItem) Line() LineItem { return l }

// Item is implemented by every line item shape a store can hold.
type Item interface {
	Line() LineItem
}

// BagItem is a line item that also remembers the product image.
type BagItem struct {
	LineItem
	Image string `json:"Image"`
}

// CartItem is the plain line item.
type CartItem = LineItem

func NewBagItem(p Product, size string) BagItem {
	return BagItem{LineItem: NewCartItem(p, size), Image: p.Image}
}

func NewCartItem(p Product, size string) CartItem {
	return LineItem{
		ShoeID: p.ID,
		Brand:  p.Brand,
		Model:  p.Model,
		Price:  p.Price,
		Size:   size,
	}
}
