package event

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Venue            string          `json:"venue"`
	Date             time.Time       `json:"date"`
	TotalTickets     int64           `json:"total_tickets"`
	AvailableTickets int64           `json:"available_tickets"`
	Price            decimal.Decimal `json:"price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (r *EventResponse) PopulateFromEntity(e Event) {
	r.ID = e.ID
	r.Name = e.Name
	r.Description = e.Description
	r.Venue = e.Venue
	r.Date = e.Date
	r.TotalTickets = e.TotalTickets
	r.AvailableTickets = e.AvailableTickets
	r.Price = e.Price
	r.CreatedAt = e.CreatedAt
	r.UpdatedAt = e.UpdatedAt
}

type GetManyEventResponse []EventResponse

type AvailabilityResponse struct {
	EventID          string `json:"event_id"`
	AvailableTickets int64  `json:"available_tickets"`
	TotalTickets     int64  `json:"total_tickets"`
	Sufficient       bool   `json:"sufficient"`
}
