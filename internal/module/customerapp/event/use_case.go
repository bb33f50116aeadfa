package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/internal/pkg/eventcache"
)

type EventUseCase interface {
	GetManyEvent(ctx context.Context, req GetManyEventRequest) (GetManyEventResponse, error)
	GetEvent(ctx context.Context, req GetEventRequest) (EventResponse, error)
	CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (AvailabilityResponse, error)
}

type eventUseCase struct {
	logger          *logrus.Logger
	timeout         time.Duration
	eventRepository EventRepository
	cache           eventcache.Cache
}

type EventUseCaseProperty struct {
	Logger          *logrus.Logger
	Timeout         time.Duration
	EventRepository EventRepository
	Cache           eventcache.Cache
}

func NewEventUseCase(props EventUseCaseProperty) EventUseCase {
	return &eventUseCase{
		logger:          props.Logger,
		timeout:         props.Timeout,
		eventRepository: props.EventRepository,
		cache:           props.Cache,
	}
}

func listCacheKey(req GetManyEventRequest) string {
	parts := make([]string, 0, 2)
	if req.Venue != "" {
		parts = append(parts, fmt.Sprintf("venue:%s", strings.ToLower(req.Venue)))
	}
	if req.DateFrom != "" {
		parts = append(parts, fmt.Sprintf("from:%s", req.DateFrom))
	}
	if len(parts) == 0 {
		return "all"
	}

	return strings.Join(parts, "|")
}

// GetManyEvent implements EventUseCase.
func (u *eventUseCase) GetManyEvent(ctx context.Context, req GetManyEventRequest) (GetManyEventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	cacheKey := listCacheKey(req)

	var cached GetManyEventResponse
	if u.cache.GetEventList(ctx, cacheKey, &cached) {
		return cached, nil
	}

	filter := Filter{Venue: req.Venue}
	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err == nil {
			filter.DateFrom = &from
		}
	}

	events, err := u.eventRepository.FindMany(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyEventResponse, len(events))
	for k, e := range events {
		resp[k].PopulateFromEntity(e)
	}

	u.cache.SetEventList(ctx, cacheKey, resp)

	return resp, nil
}

// GetEvent implements EventUseCase.
func (u *eventUseCase) GetEvent(ctx context.Context, req GetEventRequest) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var cached EventResponse
	if u.cache.GetEvent(ctx, req.EventID, &cached) {
		return cached, nil
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, nil)
	if err != nil {
		return EventResponse{}, err
	}

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	u.cache.SetEvent(ctx, req.EventID, resp)

	return resp, nil
}

// CheckAvailability implements EventUseCase. Availability is cached with a
// short TTL; the cached view is advisory only, the hold path re-checks inside
// its transaction.
func (u *eventUseCase) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (AvailabilityResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var resp AvailabilityResponse
	if u.cache.GetAvailability(ctx, req.EventID, &resp) {
		resp.Sufficient = resp.AvailableTickets >= req.Quantity
		return resp, nil
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, nil)
	if err != nil {
		return AvailabilityResponse{}, err
	}

	resp = AvailabilityResponse{
		EventID:          e.ID,
		AvailableTickets: e.AvailableTickets,
		TotalTickets:     e.TotalTickets,
	}

	u.cache.SetAvailability(ctx, req.EventID, resp)

	resp.Sufficient = resp.AvailableTickets >= req.Quantity

	return resp, nil
}
