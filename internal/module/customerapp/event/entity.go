package event

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID               string
	Name             string
	Description      string
	Venue            string
	Date             time.Time
	TotalTickets     int64
	AvailableTickets int64
	Price            decimal.Decimal
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Filter struct {
	Venue    string
	DateFrom *time.Time
}
