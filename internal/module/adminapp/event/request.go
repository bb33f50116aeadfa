package event

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tixhub/tix-reservation/internal/pkg/util"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type CreateEventRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Description  string  `json:"description" validate:"required"`
	Venue        string  `json:"venue" validate:"required,max=200"`
	Date         string  `json:"date" validate:"required"`
	TotalTickets int64   `json:"total_tickets" validate:"required,min=1"`
	Price        float64 `json:"price" validate:"min=0"`
}

func (req CreateEventRequest) ToEntityEvent(createdBy string, now time.Time) (Event, error) {
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return Event{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "invalid 'date', expected RFC3339 format")
	}

	return Event{
		ID:               util.GenerateTimestampWithPrefix("EVT"),
		Name:             req.Name,
		Description:      req.Description,
		Venue:            req.Venue,
		Date:             date,
		TotalTickets:     req.TotalTickets,
		AvailableTickets: req.TotalTickets,
		Price:            decimal.NewFromFloat(req.Price),
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type UpdateEventRequest struct {
	EventID      string   `json:"-" validate:"required"`
	Name         *string  `json:"name" validate:"omitempty,max=200"`
	Description  *string  `json:"description"`
	Venue        *string  `json:"venue" validate:"omitempty,max=200"`
	Date         *string  `json:"date"`
	TotalTickets *int64   `json:"total_tickets" validate:"omitempty,min=1"`
	Price        *float64 `json:"price" validate:"omitempty,min=0"`
}

type DeleteEventRequest struct {
	EventID string `validate:"required"`
}
