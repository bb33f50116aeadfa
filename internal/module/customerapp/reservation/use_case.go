package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/internal/module/customerapp/event"
	"github.com/tixhub/tix-reservation/internal/pkg/eventcache"
	"github.com/tixhub/tix-reservation/internal/pkg/session"
	"github.com/tixhub/tix-reservation/internal/pkg/util"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/postgresql"
	"github.com/tixhub/tix-reservation/pkg/pubsub"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type ReservationUseCase interface {
	PlaceHold(ctx context.Context, req PlaceHoldRequest) (ReservationResponse, error)
	ConfirmHold(ctx context.Context, req ConfirmHoldRequest) (ReservationResponse, error)
	CancelHold(ctx context.Context, req CancelHoldRequest) (ReservationResponse, error)
	GetReservation(ctx context.Context, req GetReservationRequest) (ReservationResponse, error)
	GetManyReservation(ctx context.Context) (GetManyReservationResponse, error)
}

type reservationUseCase struct {
	logger                *logrus.Logger
	timeout               time.Duration
	holdDuration          time.Duration
	maxTxAttempts         int
	eventRepository       event.EventRepository
	reservationRepository ReservationRepository
	publisher             pubsub.Publisher
	cache                 eventcache.Cache
}

type ReservationUseCaseProperty struct {
	Logger                *logrus.Logger
	Timeout               time.Duration
	HoldDuration          time.Duration
	MaxTxAttempts         int
	EventRepository       event.EventRepository
	ReservationRepository ReservationRepository
	Publisher             pubsub.Publisher
	Cache                 eventcache.Cache
}

func NewReservationUseCase(props ReservationUseCaseProperty) ReservationUseCase {
	maxTxAttempts := props.MaxTxAttempts
	if maxTxAttempts < 1 {
		maxTxAttempts = 3
	}

	return &reservationUseCase{
		logger:                props.Logger,
		timeout:               props.Timeout,
		holdDuration:          props.HoldDuration,
		maxTxAttempts:         maxTxAttempts,
		eventRepository:       props.EventRepository,
		reservationRepository: props.ReservationRepository,
		publisher:             props.Publisher,
		cache:                 props.Cache,
	}
}

// afterTransition emits the best-effort side signals of a committed state
// change: a domain event keyed by event id and a cache invalidation. Failures
// are logged by the collaborators and never surfaced to the caller.
func (u *reservationUseCase) afterTransition(ctx context.Context, rsv Reservation, topic string) {
	buff, _ := json.Marshal(StateTransitionEvent{
		ReservationID: rsv.ID,
		EventID:       rsv.EventID,
		UserID:        rsv.UserID,
		Quantity:      rsv.Quantity,
		Status:        rsv.Status,
		OccurredAt:    time.Now(),
	})

	u.publisher.Publish(ctx, topic, rsv.EventID, nil, buff)
	u.cache.InvalidateEvent(ctx, rsv.EventID)
}

// PlaceHold implements ReservationUseCase.
func (u *reservationUseCase) PlaceHold(ctx context.Context, req PlaceHoldRequest) (ReservationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ReservationResponse{}, err
	}

	if req.Quantity < 1 {
		return ReservationResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "quantity must be at least 1")
	}

	var rsv Reservation
	for attempt := 1; ; attempt++ {
		rsv, err = u.placeHold(ctx, req, acc)
		if err == nil || !postgresql.IsRetryable(err) || attempt >= u.maxTxAttempts {
			break
		}
		u.logger.WithContext(ctx).WithField("attempt", attempt).Warn("retrying hold placement after transaction conflict")
	}
	if err != nil {
		return ReservationResponse{}, err
	}

	u.afterTransition(ctx, rsv, TopicReservationPlaced)

	resp := ReservationResponse{}
	resp.PopulateFromEntity(rsv)

	return resp, nil
}

func (u *reservationUseCase) placeHold(ctx context.Context, req PlaceHoldRequest, acc session.Account) (Reservation, error) {
	tx, err := u.reservationRepository.BeginTx(ctx)
	if err != nil {
		return Reservation{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, req.EventID, tx)
	if err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	if e.AvailableTickets < req.Quantity {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("only %d tickets available", e.AvailableTickets))
	}

	if err := u.eventRepository.DecrementAvailability(ctx, e.ID, req.Quantity, tx); err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	now := time.Now()
	holdDeadline := now.Add(u.holdDuration)

	rsv := Reservation{
		ID:           util.GenerateTimestampWithPrefix("RSV"),
		EventID:      e.ID,
		UserID:       acc.ID,
		Quantity:     req.Quantity,
		TotalPrice:   e.Price.Mul(decimal.NewFromInt(req.Quantity)),
		Status:       StatusPending,
		HoldDeadline: &holdDeadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := u.reservationRepository.Save(ctx, rsv, tx); err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	if err := u.reservationRepository.CommitTx(ctx, tx); err != nil {
		return Reservation{}, err
	}

	return rsv, nil
}

// ConfirmHold implements ReservationUseCase. The deadline comparison happens
// inside the same transaction as the status flip, so a sweeper pass racing on
// the same row can never both expire and confirm it; an attempt past the
// deadline conflicts even when the sweeper has not swept the row yet.
func (u *reservationUseCase) ConfirmHold(ctx context.Context, req ConfirmHoldRequest) (ReservationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ReservationResponse{}, err
	}

	var rsv Reservation
	for attempt := 1; ; attempt++ {
		rsv, err = u.confirmHold(ctx, req, acc)
		if err == nil || !postgresql.IsRetryable(err) || attempt >= u.maxTxAttempts {
			break
		}
		u.logger.WithContext(ctx).WithField("attempt", attempt).Warn("retrying hold confirmation after transaction conflict")
	}
	if err != nil {
		return ReservationResponse{}, err
	}

	u.afterTransition(ctx, rsv, TopicReservationConfirmed)

	resp := ReservationResponse{}
	resp.PopulateFromEntity(rsv)

	return resp, nil
}

func (u *reservationUseCase) confirmHold(ctx context.Context, req ConfirmHoldRequest, acc session.Account) (Reservation, error) {
	tx, err := u.reservationRepository.BeginTx(ctx)
	if err != nil {
		return Reservation{}, err
	}

	rsv, err := u.reservationRepository.FindByIDForUpdate(ctx, req.ReservationID, tx)
	if err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	if rsv.UserID != acc.ID {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "not authorized to confirm this reservation")
	}

	if rsv.Status != StatusPending {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("reservation cannot be confirmed. current status: %s", rsv.Status))
	}

	if rsv.HoldDeadline == nil || time.Now().After(*rsv.HoldDeadline) {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusConflict, status.CONFLICT, "reservation hold has expired")
	}

	rsv.Status = StatusConfirmed
	rsv.HoldDeadline = nil
	rsv.UpdatedAt = time.Now()

	if err := u.reservationRepository.UpdateStatus(ctx, rsv.ID, rsv, tx); err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	if err := u.reservationRepository.CommitTx(ctx, tx); err != nil {
		return Reservation{}, err
	}

	return rsv, nil
}

// CancelHold implements ReservationUseCase.
func (u *reservationUseCase) CancelHold(ctx context.Context, req CancelHoldRequest) (ReservationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ReservationResponse{}, err
	}

	var rsv Reservation
	for attempt := 1; ; attempt++ {
		rsv, err = u.cancelHold(ctx, req, acc)
		if err == nil || !postgresql.IsRetryable(err) || attempt >= u.maxTxAttempts {
			break
		}
		u.logger.WithContext(ctx).WithField("attempt", attempt).Warn("retrying hold cancellation after transaction conflict")
	}
	if err != nil {
		return ReservationResponse{}, err
	}

	u.afterTransition(ctx, rsv, TopicReservationCancelled)

	resp := ReservationResponse{}
	resp.PopulateFromEntity(rsv)

	return resp, nil
}

func (u *reservationUseCase) cancelHold(ctx context.Context, req CancelHoldRequest, acc session.Account) (Reservation, error) {
	tx, err := u.reservationRepository.BeginTx(ctx)
	if err != nil {
		return Reservation{}, err
	}

	rsv, err := u.reservationRepository.FindByIDForUpdate(ctx, req.ReservationID, tx)
	if err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	if rsv.UserID != acc.ID {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "not authorized to cancel this reservation")
	}

	if rsv.Status == StatusCancelled {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusConflict, status.CONFLICT, "reservation is already cancelled")
	}

	if rsv.Status != StatusPending {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("reservation cannot be cancelled. current status: %s", rsv.Status))
	}

	if err := u.eventRepository.IncrementAvailability(ctx, rsv.EventID, rsv.Quantity, tx); err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	rsv.Status = StatusCancelled
	rsv.HoldDeadline = nil
	rsv.UpdatedAt = time.Now()

	if err := u.reservationRepository.UpdateStatus(ctx, rsv.ID, rsv, tx); err != nil {
		u.reservationRepository.Rollback(ctx, tx)
		return Reservation{}, err
	}

	if err := u.reservationRepository.CommitTx(ctx, tx); err != nil {
		return Reservation{}, err
	}

	return rsv, nil
}

// GetReservation implements ReservationUseCase.
func (u *reservationUseCase) GetReservation(ctx context.Context, req GetReservationRequest) (ReservationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ReservationResponse{}, err
	}

	rsv, err := u.reservationRepository.FindByID(ctx, req.ReservationID, nil)
	if err != nil {
		return ReservationResponse{}, err
	}

	if rsv.UserID != acc.ID {
		return ReservationResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "not authorized to view this reservation")
	}

	resp := ReservationResponse{}
	resp.PopulateFromEntity(rsv)

	return resp, nil
}

// GetManyReservation implements ReservationUseCase.
func (u *reservationUseCase) GetManyReservation(ctx context.Context) (GetManyReservationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	reservations, err := u.reservationRepository.FindManyByUserID(ctx, acc.ID, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyReservationResponse, len(reservations))
	for k, rsv := range reservations {
		resp[k].PopulateFromEntity(rsv)
	}

	return resp, nil
}
