package domain

type CartLine struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// Cart is an insertion-ordered snapshot of a user's cart.
type Cart struct {
	UserID int64      `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Quantity returns the quantity for title, 0 if absent.
func (c Cart) Quantity(title string) int {
	for _, line := range c.Lines {
		if line.Title == title {
			return line.Quantity
		}
	}
	return 0
}

type LineItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Amount    int64  `json:"amount"`
}

type Summary struct {
	Lines []LineItem `json:"lines"`
	Total int64      `json:"total"`
}
