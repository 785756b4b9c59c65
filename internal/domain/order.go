package domain

import "time"

type Order struct {
	ID       string    `json:"id"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Summary  Summary   `json:"summary"`
	PlacedAt time.Time `json:"placed_at"`
}
