package entity

import "time"

type Department struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Budget    float64   `json:"budget"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
