package booking

import (
	"time"
)

type BookTripResponse struct {
	BookingID     int64   `json:"booking_id"`
	TripID        int64   `json:"trip_id"`
	Status        string  `json:"status"`
	InvoiceNumber string  `json:"invoice_number"`
	Amount        int64   `json:"amount"`
	PaymentURL    *string `json:"payment_url,omitempty"`
}

type BookingInfo struct {
	BookingID     int64      `json:"booking_id"`
	TripID        int64      `json:"trip_id"`
	TripTitle     string     `json:"trip_title"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	PaymentURL    *string    `json:"payment_url,omitempty"`
	Amount        int64      `json:"amount"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type PaymentStatusInfo struct {
	BookingID     int64      `json:"booking_id"`
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	PaymentURL    *string    `json:"payment_url,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`
}
