package cart

// Item is the purchasable variant handed to Store.Add. It carries display
// metadata only; the quantity is supplied separately.
type Item struct {
	VariantID    string
	ProductID    string
	Title        string
	VariantTitle string
	Price        string
	CurrencyCode string
	Image        string
	Handle       string
}

// Line is one row of the cart. At most one Line exists per VariantID and
// Quantity is always at least 1.
type Line struct {
	VariantID    string `json:"variantId"`
	ProductID    string `json:"productId"`
	Title        string `json:"title"`
	VariantTitle string `json:"variantTitle,omitempty"`
	Price        string `json:"price"`
	CurrencyCode string `json:"currencyCode"`
	Quantity     int    `json:"quantity"`
	Image        string `json:"image,omitempty"`
	Handle       string `json:"handle"`
}

func newLine(item Item, quantity int) Line {
	return Line{
		VariantID:    item.VariantID,
		ProductID:    item.ProductID,
		Title:        item.Title,
		VariantTitle: item.VariantTitle,
		Price:        item.Price,
		CurrencyCode: item.CurrencyCode,
		Quantity:     quantity,
		Image:        item.Image,
		Handle:       item.Handle,
	}
}

// LineInput is the merchandise/quantity pair submitted to the cart-creation API.
type LineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// CheckoutResult is the reshaped cart-creation response.
type CheckoutResult struct {
	CartID      string
	CheckoutURL string
	UserErrors  []string
	Errors      []string
}
