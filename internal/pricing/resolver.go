package pricing

import (
	"iter"

	"storefront/bot/internal/domain"
)

// ProductSource is the catalog view pricing needs
type ProductSource interface {
	AllProducts() iter.Seq2[string, domain.Product]
}

// Resolver prices cart lines against the current catalog. A title missing
// from the catalog prices as 0; when several categories carry the same title
// the first one in catalog order wins.
type Resolver struct {
	products ProductSource
}

func NewResolver(products ProductSource) *Resolver {
	return &Resolver{products: products}
}

func (r *Resolver) PriceOf(title string) int64 {
	for _, p := range r.products.AllProducts() {
		if p.Title == title {
			return p.Price
		}
	}
	return 0
}

func (r *Resolver) Summarize(cart domain.Cart) domain.Summary {
	summary := domain.Summary{Lines: make([]domain.LineItem, 0, len(cart.Lines))}

	for _, line := range cart.Lines {
		price := r.PriceOf(line.Title)
		amount := price * int64(line.Quantity)
		summary.Lines = append(summary.Lines, domain.LineItem{
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: price,
			Amount:    amount,
		})
		summary.Total += amount
	}

	return summary
}
