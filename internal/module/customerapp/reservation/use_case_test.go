package reservation

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tixhub/tix-reservation/internal/module/customerapp/event"
	"github.com/tixhub/tix-reservation/internal/pkg/session"
	"github.com/tixhub/tix-reservation/pkg/errors"
)

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (event.Event, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(event.Event), args.Error(1)
}

func (m *mockEventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (event.Event, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(event.Event), args.Error(1)
}

func (m *mockEventRepository) FindMany(ctx context.Context, filter event.Filter, tx *sql.Tx) ([]event.Event, error) {
	args := m.Called(ctx, filter, tx)
	return args.Get(0).([]event.Event), args.Error(1)
}

func (m *mockEventRepository) DecrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	args := m.Called(ctx, ID, quantity, tx)
	return args.Error(0)
}

func (m *mockEventRepository) IncrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	args := m.Called(ctx, ID, quantity, tx)
	return args.Error(0)
}

type mockReservationRepository struct {
	mock.Mock
}

func (m *mockReservationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

func (m *mockReservationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockReservationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockReservationRepository) Save(ctx context.Context, rsv Reservation, tx *sql.Tx) error {
	args := m.Called(ctx, rsv, tx)
	return args.Error(0)
}

func (m *mockReservationRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Reservation), args.Error(1)
}

func (m *mockReservationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Reservation), args.Error(1)
}

func (m *mockReservationRepository) FindManyByUserID(ctx context.Context, userID string, tx *sql.Tx) ([]Reservation, error) {
	args := m.Called(ctx, userID, tx)
	return args.Get(0).([]Reservation), args.Error(1)
}

func (m *mockReservationRepository) FindManyExpired(ctx context.Context, deadline time.Time, limit int64, tx *sql.Tx) ([]Reservation, error) {
	args := m.Called(ctx, deadline, limit, tx)
	return args.Get(0).([]Reservation), args.Error(1)
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, ID string, rsv Reservation, tx *sql.Tx) error {
	args := m.Called(ctx, ID, rsv, tx)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error {
	args := m.Called(ctx, topic, key, headers, message)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockEventCache struct {
	mock.Mock
}

func (m *mockEventCache) GetEvent(ctx context.Context, eventID string, dest interface{}) bool {
	args := m.Called(ctx, eventID, dest)
	return args.Bool(0)
}

func (m *mockEventCache) SetEvent(ctx context.Context, eventID string, value interface{}) {
	m.Called(ctx, eventID, value)
}

func (m *mockEventCache) GetEventList(ctx context.Context, listKey string, dest interface{}) bool {
	args := m.Called(ctx, listKey, dest)
	return args.Bool(0)
}

func (m *mockEventCache) SetEventList(ctx context.Context, listKey string, value interface{}) {
	m.Called(ctx, listKey, value)
}

func (m *mockEventCache) GetAvailability(ctx context.Context, eventID string, dest interface{}) bool {
	args := m.Called(ctx, eventID, dest)
	return args.Bool(0)
}

func (m *mockEventCache) SetAvailability(ctx context.Context, eventID string, value interface{}) {
	m.Called(ctx, eventID, value)
}

func (m *mockEventCache) InvalidateEvent(ctx context.Context, eventID string) {
	m.Called(ctx, eventID)
}

func (m *mockEventCache) InvalidateEventLists(ctx context.Context) {
	m.Called(ctx)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func customerCtx(userID string) context.Context {
	return session.SetAccountToCtx(context.Background(), session.Account{
		ID:    userID,
		Name:  "Test Customer",
		Email: "customer@example.com",
		Role:  "customer",
	})
}

type useCaseMocks struct {
	eventRepo       *mockEventRepository
	reservationRepo *mockReservationRepository
	publisher       *mockPublisher
	cache           *mockEventCache
}

func newReservationUseCaseWithMocks() (ReservationUseCase, useCaseMocks) {
	m := useCaseMocks{
		eventRepo:       &mockEventRepository{},
		reservationRepo: &mockReservationRepository{},
		publisher:       &mockPublisher{},
		cache:           &mockEventCache{},
	}

	uc := NewReservationUseCase(ReservationUseCaseProperty{
		Logger:                testLogger(),
		Timeout:               5 * time.Second,
		HoldDuration:          10 * time.Minute,
		EventRepository:       m.eventRepo,
		ReservationRepository: m.reservationRepo,
		Publisher:             m.publisher,
		Cache:                 m.cache,
	})

	return uc, m
}

func TestPlaceHold(t *testing.T) {
	t.Run("places a pending hold and deducts availability", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		e := event.Event{
			ID:               "EVT-1",
			Name:             "Concert",
			TotalTickets:     100,
			AvailableTickets: 40,
			Price:            decimal.NewFromInt(150),
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.eventRepo.On("FindByIDForUpdate", mock.Anything, "EVT-1", mock.Anything).Return(e, nil)
		m.eventRepo.On("DecrementAvailability", mock.Anything, "EVT-1", int64(3), mock.Anything).Return(nil)
		m.reservationRepo.On("Save", mock.Anything, mock.MatchedBy(func(rsv Reservation) bool {
			return rsv.EventID == "EVT-1" && rsv.UserID == "USR-1" && rsv.Quantity == 3 && rsv.Status == StatusPending && rsv.HoldDeadline != nil
		}), mock.Anything).Return(nil)
		m.reservationRepo.On("CommitTx", mock.Anything, mock.Anything).Return(nil)
		m.publisher.On("Publish", mock.Anything, TopicReservationPlaced, "EVT-1", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("InvalidateEvent", mock.Anything, "EVT-1").Return()

		resp, err := uc.PlaceHold(ctx, PlaceHoldRequest{EventID: "EVT-1", Quantity: 3})

		require.NoError(t, err)
		assert.Equal(t, StatusPending, resp.Status)
		assert.Equal(t, int64(3), resp.Quantity)
		assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(450)))
		require.NotNil(t, resp.HoldDeadline)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *resp.HoldDeadline, time.Minute)

		m.reservationRepo.AssertExpectations(t)
		m.eventRepo.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("rejects the hold when availability is insufficient", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		e := event.Event{
			ID:               "EVT-1",
			AvailableTickets: 2,
			Price:            decimal.NewFromInt(150),
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.eventRepo.On("FindByIDForUpdate", mock.Anything, "EVT-1", mock.Anything).Return(e, nil)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.PlaceHold(ctx, PlaceHoldRequest{EventID: "EVT-1", Quantity: 5})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 409, ae.HTTPStatusCode)
		assert.Equal(t, "only 2 tickets available", ae.Message)

		m.reservationRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		m.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates not found for an unknown event", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		notFound := errors.New(404, "NOT_FOUND", "event with id 'EVT-404' is not found")

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.eventRepo.On("FindByIDForUpdate", mock.Anything, "EVT-404", mock.Anything).Return(event.Event{}, notFound)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.PlaceHold(ctx, PlaceHoldRequest{EventID: "EVT-404", Quantity: 1})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 404, ae.HTTPStatusCode)
	})

	t.Run("rejects a non positive quantity", func(t *testing.T) {
		uc, _ := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		_, err := uc.PlaceHold(ctx, PlaceHoldRequest{EventID: "EVT-1", Quantity: 0})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 400, ae.HTTPStatusCode)
	})

	t.Run("rejects the request without a session account", func(t *testing.T) {
		uc, _ := newReservationUseCaseWithMocks()

		_, err := uc.PlaceHold(context.Background(), PlaceHoldRequest{EventID: "EVT-1", Quantity: 1})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 401, ae.HTTPStatusCode)
	})
}

func TestConfirmHold(t *testing.T) {
	t.Run("confirms a pending hold before its deadline", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		deadline := time.Now().Add(5 * time.Minute)
		rsv := Reservation{
			ID:           "RSV-1",
			EventID:      "EVT-1",
			UserID:       "USR-1",
			Quantity:     2,
			Status:       StatusPending,
			HoldDeadline: &deadline,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.reservationRepo.On("UpdateStatus", mock.Anything, "RSV-1", mock.MatchedBy(func(updated Reservation) bool {
			return updated.Status == StatusConfirmed && updated.HoldDeadline == nil
		}), mock.Anything).Return(nil)
		m.reservationRepo.On("CommitTx", mock.Anything, mock.Anything).Return(nil)
		m.publisher.On("Publish", mock.Anything, TopicReservationConfirmed, "EVT-1", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("InvalidateEvent", mock.Anything, "EVT-1").Return()

		resp, err := uc.ConfirmHold(ctx, ConfirmHoldRequest{ReservationID: "RSV-1"})

		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, resp.Status)
		assert.Nil(t, resp.HoldDeadline)

		m.reservationRepo.AssertExpectations(t)
	})

	t.Run("refuses confirmation from another user", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-2")

		deadline := time.Now().Add(5 * time.Minute)
		rsv := Reservation{
			ID:           "RSV-1",
			EventID:      "EVT-1",
			UserID:       "USR-1",
			Status:       StatusPending,
			HoldDeadline: &deadline,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.ConfirmHold(ctx, ConfirmHoldRequest{ReservationID: "RSV-1"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 403, ae.HTTPStatusCode)

		m.reservationRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("conflicts when the hold deadline has passed", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		deadline := time.Now().Add(-time.Minute)
		rsv := Reservation{
			ID:           "RSV-1",
			EventID:      "EVT-1",
			UserID:       "USR-1",
			Status:       StatusPending,
			HoldDeadline: &deadline,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.ConfirmHold(ctx, ConfirmHoldRequest{ReservationID: "RSV-1"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 409, ae.HTTPStatusCode)
		assert.Equal(t, "reservation hold has expired", ae.Message)
	})

	t.Run("conflicts when the reservation is not pending", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		rsv := Reservation{
			ID:      "RSV-1",
			EventID: "EVT-1",
			UserID:  "USR-1",
			Status:  StatusExpired,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.ConfirmHold(ctx, ConfirmHoldRequest{ReservationID: "RSV-1"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 409, ae.HTTPStatusCode)
	})
}

func TestCancelHold(t *testing.T) {
	t.Run("cancels a pending hold and returns its tickets", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		deadline := time.Now().Add(5 * time.Minute)
		rsv := Reservation{
			ID:           "RSV-1",
			EventID:      "EVT-1",
			UserID:       "USR-1",
			Quantity:     4,
			Status:       StatusPending,
			HoldDeadline: &deadline,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.eventRepo.On("IncrementAvailability", mock.Anything, "EVT-1", int64(4), mock.Anything).Return(nil)
		m.reservationRepo.On("UpdateStatus", mock.Anything, "RSV-1", mock.MatchedBy(func(updated Reservation) bool {
			return updated.Status == StatusCancelled && updated.HoldDeadline == nil
		}), mock.Anything).Return(nil)
		m.reservationRepo.On("CommitTx", mock.Anything, mock.Anything).Return(nil)
		m.publisher.On("Publish", mock.Anything, TopicReservationCancelled, "EVT-1", mock.Anything, mock.Anything).Return(nil)
		m.cache.On("InvalidateEvent", mock.Anything, "EVT-1").Return()

		resp, err := uc.CancelHold(ctx, CancelHoldRequest{ReservationID: "RSV-1"})

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, resp.Status)

		m.eventRepo.AssertExpectations(t)
		m.reservationRepo.AssertExpectations(t)
	})

	t.Run("conflicts when the reservation is already cancelled", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		rsv := Reservation{
			ID:      "RSV-1",
			EventID: "EVT-1",
			UserID:  "USR-1",
			Status:  StatusCancelled,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.CancelHold(ctx, CancelHoldRequest{ReservationID: "RSV-1"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 409, ae.HTTPStatusCode)
		assert.Equal(t, "reservation is already cancelled", ae.Message)

		m.eventRepo.AssertNotCalled(t, "IncrementAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("refuses cancellation from another user", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-2")

		rsv := Reservation{
			ID:      "RSV-1",
			EventID: "EVT-1",
			UserID:  "USR-1",
			Status:  StatusPending,
		}

		m.reservationRepo.On("BeginTx", mock.Anything).Return(nil, nil)
		m.reservationRepo.On("FindByIDForUpdate", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)
		m.reservationRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.CancelHold(ctx, CancelHoldRequest{ReservationID: "RSV-1"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 403, ae.HTTPStatusCode)
	})
}

func TestGetReservation(t *testing.T) {
	t.Run("returns the caller's reservation", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		rsv := Reservation{
			ID:      "RSV-1",
			EventID: "EVT-1",
			UserID:  "USR-1",
			Status:  StatusConfirmed,
		}

		m.reservationRepo.On("FindByID", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)

		resp, err := uc.GetReservation(ctx, GetReservationRequest{ReservationID: "RSV-1"})

		require.NoError(t, err)
		assert.Equal(t, "RSV-1", resp.ID)
		assert.Equal(t, StatusConfirmed, resp.Status)
	})

	t.Run("refuses to expose another user's reservation", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-2")

		rsv := Reservation{
			ID:     "RSV-1",
			UserID: "USR-1",
			Status: StatusConfirmed,
		}

		m.reservationRepo.On("FindByID", mock.Anything, "RSV-1", mock.Anything).Return(rsv, nil)

		_, err := uc.GetReservation(ctx, GetReservationRequest{ReservationID: "RSV-1"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 403, ae.HTTPStatusCode)
	})
}

func TestGetManyReservation(t *testing.T) {
	t.Run("lists the caller's reservations", func(t *testing.T) {
		uc, m := newReservationUseCaseWithMocks()
		ctx := customerCtx("USR-1")

		m.reservationRepo.On("FindManyByUserID", mock.Anything, "USR-1", mock.Anything).Return([]Reservation{
			{ID: "RSV-1", UserID: "USR-1", Status: StatusConfirmed},
			{ID: "RSV-2", UserID: "USR-1", Status: StatusPending},
		}, nil)

		resp, err := uc.GetManyReservation(ctx)

		require.NoError(t, err)
		require.Len(t, resp, 2)
		assert.Equal(t, "RSV-1", resp[0].ID)
		assert.Equal(t, "RSV-2", resp[1].ID)
	})
}
