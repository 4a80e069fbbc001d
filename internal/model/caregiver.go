package model

import "time"

type Caregiver struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	IsPaid       bool      `json:"is_paid"`
	PayRateCents int64     `json:"pay_rate_cents"`
	HasPIN       bool      `json:"has_pin"`
	SortOrder    int       `json:"sort_order"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
