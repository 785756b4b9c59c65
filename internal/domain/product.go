package domain

// Product is a single catalog row. Inside a category it is identified by its
// position in the load that produced it.
type Product struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Photo       string `json:"photo,omitempty"`
}

// Category groups products in feed order. Index is its place in the
// catalog's category order.
type Category struct {
	Name     string    `json:"name"`
	Index    int       `json:"index"`
	Version  string    `json:"version"`  // fingerprint of Name and Products
	Products []Product `json:"products"` // position is identity
}

// FeedRow is a parsed feed line before grouping.
type FeedRow struct {
	Category string
	Product  Product
}
