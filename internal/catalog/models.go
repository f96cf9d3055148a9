package catalog

// DefaultStock is reported for products whose source does not track stock.
const DefaultStock = 100

// Product is read-only from this service's point of view.
// Weight is the size label the price is quoted for.
type Product struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Subtitle string   `json:"subtitle"`
	Price    float64  `json:"price"`
	Weight   string   `json:"weight"`
	Grade    string   `json:"grade"`
	Origin   string   `json:"origin"`
	Images   []string `json:"images"`
	Stock    int      `json:"stock"`
}

// FirstImage returns the product's lead image or "".
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
