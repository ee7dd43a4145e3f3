package models

import "time"

// Tour is a catalog record. The booking core reads it for pricing and
// never mutates it; tour management belongs to the catalog service.
type Tour struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Duration  string    `json:"duration" db:"duration"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
