package reservation

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   string = "PENDING"
	StatusConfirmed string = "CONFIRMED"
	StatusCancelled string = "CANCELLED"
	StatusExpired   string = "EXPIRED"
)

// Reservation is a hold on event inventory. While the status is PENDING the
// quantity has already been deducted from the event's availability and
// HoldDeadline bounds how long the hold may still be confirmed. Every other
// status is terminal.
type Reservation struct {
	ID           string
	EventID      string
	UserID       string
	Quantity     int64
	TotalPrice   decimal.Decimal
	Status       string
	HoldDeadline *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
