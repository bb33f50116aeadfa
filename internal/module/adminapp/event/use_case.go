package event

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/internal/pkg/eventcache"
	"github.com/tixhub/tix-reservation/internal/pkg/session"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type EventUseCase interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (EventResponse, error)
	UpdateEvent(ctx context.Context, req UpdateEventRequest) (EventResponse, error)
	DeleteEvent(ctx context.Context, req DeleteEventRequest) error
}

type eventUseCase struct {
	logger                *logrus.Logger
	timeout               time.Duration
	eventRepository       EventRepository
	reservationRepository ReservationRepository
	cache                 eventcache.Cache
}

type EventUseCaseProperty struct {
	Logger                *logrus.Logger
	Timeout               time.Duration
	EventRepository       EventRepository
	ReservationRepository ReservationRepository
	Cache                 eventcache.Cache
}

func NewEventUseCase(props EventUseCaseProperty) EventUseCase {
	return &eventUseCase{
		logger:                props.Logger,
		timeout:               props.Timeout,
		eventRepository:       props.EventRepository,
		reservationRepository: props.ReservationRepository,
		cache:                 props.Cache,
	}
}

// CreateEvent implements EventUseCase. A new event starts with its full
// inventory available.
func (u *eventUseCase) CreateEvent(ctx context.Context, req CreateEventRequest) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	e, err := req.ToEntityEvent(acc.ID, time.Now())
	if err != nil {
		return EventResponse{}, err
	}

	if err := u.eventRepository.Save(ctx, e, nil); err != nil {
		return EventResponse{}, err
	}

	u.cache.InvalidateEventLists(ctx)

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	return resp, nil
}

// UpdateEvent implements EventUseCase. A capacity resize moves availability by
// the same delta as the total, so tickets already held or sold stay held or
// sold. The resize is refused when it would push availability below zero.
func (u *eventUseCase) UpdateEvent(ctx context.Context, req UpdateEventRequest) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := session.GetAccountFromCtx(ctx); err != nil {
		return EventResponse{}, err
	}

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, req.EventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Venue != nil {
		e.Venue = *req.Venue
	}
	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return EventResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "invalid 'date', expected RFC3339 format")
		}
		e.Date = date
	}
	if req.Price != nil {
		e.Price = decimal.NewFromFloat(*req.Price)
	}
	if req.TotalTickets != nil {
		delta := *req.TotalTickets - e.TotalTickets
		if e.AvailableTickets+delta < 0 {
			u.eventRepository.Rollback(ctx, tx)
			return EventResponse{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("cannot shrink capacity below reserved tickets. %d tickets are currently reserved", e.TotalTickets-e.AvailableTickets))
		}
		e.TotalTickets = *req.TotalTickets
		e.AvailableTickets += delta
	}

	e.UpdatedAt = time.Now()

	if err := u.eventRepository.Update(ctx, e.ID, e, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return EventResponse{}, err
	}

	u.cache.InvalidateEvent(ctx, e.ID)

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	return resp, nil
}

// DeleteEvent implements EventUseCase. Deletion is refused while pending or
// confirmed reservations still reference the event.
func (u *eventUseCase) DeleteEvent(ctx context.Context, req DeleteEventRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := session.GetAccountFromCtx(ctx); err != nil {
		return err
	}

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	if _, err := u.eventRepository.FindByIDForUpdate(ctx, req.EventID, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	count, err := u.reservationRepository.CountActiveByEventID(ctx, req.EventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if count > 0 {
		u.eventRepository.Rollback(ctx, tx)
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("event still has %d active reservations", count))
	}

	if err := u.eventRepository.Delete(ctx, req.EventID, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	u.cache.InvalidateEvent(ctx, req.EventID)

	return nil
}
