package reservation

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationResponse struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	UserID       string          `json:"user_id"`
	Quantity     int64           `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Status       string          `json:"status"`
	HoldDeadline *time.Time      `json:"hold_deadline,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r *ReservationResponse) PopulateFromEntity(rsv Reservation) {
	r.ID = rsv.ID
	r.EventID = rsv.EventID
	r.UserID = rsv.UserID
	r.Quantity = rsv.Quantity
	r.TotalPrice = rsv.TotalPrice
	r.Status = rsv.Status
	r.HoldDeadline = rsv.HoldDeadline
	r.CreatedAt = rsv.CreatedAt
	r.UpdatedAt = rsv.UpdatedAt
}

type GetManyReservationResponse []ReservationResponse
