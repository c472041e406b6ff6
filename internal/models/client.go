package models

import "time"

// Client is the best-effort profile cache for a WhatsApp user. Booking
// never requires it; it only lets the flow skip asking for a known email.
type Client struct {
	Phone     string    `json:"phone" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}
