package event

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
	"github.com/tixhub/tix-reservation/pkg/errors"
)

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Event), args.Error(1)
}

func (m *mockEventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Event), args.Error(1)
}

func (m *mockEventRepository) FindMany(ctx context.Context, filter Filter, tx *sql.Tx) ([]Event, error) {
	args := m.Called(ctx, filter, tx)
	return args.Get(0).([]Event), args.Error(1)
}

func (m *mockEventRepository) DecrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	args := m.Called(ctx, ID, quantity, tx)
	return args.Error(0)
}

func (m *mockEventRepository) IncrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	args := m.Called(ctx, ID, quantity, tx)
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

func newEventUseCaseWithMocks() (EventUseCase, *mockEventRepository, *mockEventCache) {
	eventRepo := &mockEventRepository{}
	cache := &mockEventCache{}

	uc := NewEventUseCase(EventUseCaseProperty{
		Logger:          testLogger(),
		Timeout:         5 * time.Second,
		EventRepository: eventRepo,
		Cache:           cache,
	})

	return uc, eventRepo, cache
}

func TestGetEvent(t *testing.T) {
	t.Run("serves the event from the store on a cache miss", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		e := Event{
			ID:               "EVT-1",
			Name:             "Concert",
			Venue:            "Arena",
			TotalTickets:     100,
			AvailableTickets: 40,
			Price:            decimal.NewFromInt(150),
		}

		cache.On("GetEvent", mock.Anything, "EVT-1", mock.Anything).Return(false)
		eventRepo.On("FindByID", mock.Anything, "EVT-1", mock.Anything).Return(e, nil)
		cache.On("SetEvent", mock.Anything, "EVT-1", mock.Anything).Return()

		resp, err := uc.GetEvent(context.Background(), GetEventRequest{EventID: "EVT-1"})

		require.NoError(t, err)
		assert.Equal(t, "EVT-1", resp.ID)
		assert.Equal(t, int64(40), resp.AvailableTickets)

		cache.AssertExpectations(t)
		eventRepo.AssertExpectations(t)
	})

	t.Run("serves the event from the cache on a hit", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		cache.On("GetEvent", mock.Anything, "EVT-1", mock.Anything).Run(func(args mock.Arguments) {
			dest := args.Get(2).(*EventResponse)
			dest.ID = "EVT-1"
			dest.Name = "Concert"
		}).Return(true)

		resp, err := uc.GetEvent(context.Background(), GetEventRequest{EventID: "EVT-1"})

		require.NoError(t, err)
		assert.Equal(t, "Concert", resp.Name)

		eventRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates not found for an unknown event", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		notFound := errors.New(404, "NOT_FOUND", "event with id 'EVT-404' is not found")

		cache.On("GetEvent", mock.Anything, "EVT-404", mock.Anything).Return(false)
		eventRepo.On("FindByID", mock.Anything, "EVT-404", mock.Anything).Return(Event{}, notFound)

		_, err := uc.GetEvent(context.Background(), GetEventRequest{EventID: "EVT-404"})

		require.Error(t, err)
		ae := errors.Destruct(err)
		assert.Equal(t, 404, ae.HTTPStatusCode)
	})
}

func TestGetManyEvent(t *testing.T) {
	t.Run("lists events matching the filter and caches the page", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		cache.On("GetEventList", mock.Anything, "venue:arena", mock.Anything).Return(false)
		eventRepo.On("FindMany", mock.Anything, Filter{Venue: "Arena"}, mock.Anything).Return([]Event{
			{ID: "EVT-1", Venue: "Arena"},
			{ID: "EVT-2", Venue: "Arena"},
		}, nil)
		cache.On("SetEventList", mock.Anything, "venue:arena", mock.Anything).Return()

		resp, err := uc.GetManyEvent(context.Background(), GetManyEventRequest{Venue: "Arena"})

		require.NoError(t, err)
		require.Len(t, resp, 2)

		cache.AssertExpectations(t)
	})

	t.Run("serves the list from the cache on a hit", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		cache.On("GetEventList", mock.Anything, "all", mock.Anything).Run(func(args mock.Arguments) {
			dest := args.Get(2).(*GetManyEventResponse)
			*dest = GetManyEventResponse{{ID: "EVT-1"}}
		}).Return(true)

		resp, err := uc.GetManyEvent(context.Background(), GetManyEventRequest{})

		require.NoError(t, err)
		require.Len(t, resp, 1)

		eventRepo.AssertNotCalled(t, "FindMany", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCheckAvailability(t *testing.T) {
	t.Run("reports sufficiency against the requested quantity", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		e := Event{
			ID:               "EVT-1",
			TotalTickets:     100,
			AvailableTickets: 5,
		}

		cache.On("GetAvailability", mock.Anything, "EVT-1", mock.Anything).Return(false)
		eventRepo.On("FindByID", mock.Anything, "EVT-1", mock.Anything).Return(e, nil)
		cache.On("SetAvailability", mock.Anything, "EVT-1", mock.Anything).Return()

		resp, err := uc.CheckAvailability(context.Background(), CheckAvailabilityRequest{EventID: "EVT-1", Quantity: 3})

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.AvailableTickets)
		assert.True(t, resp.Sufficient)
	})

	t.Run("reports insufficiency when the quantity exceeds availability", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		e := Event{
			ID:               "EVT-1",
			TotalTickets:     100,
			AvailableTickets: 2,
		}

		cache.On("GetAvailability", mock.Anything, "EVT-1", mock.Anything).Return(false)
		eventRepo.On("FindByID", mock.Anything, "EVT-1", mock.Anything).Return(e, nil)
		cache.On("SetAvailability", mock.Anything, "EVT-1", mock.Anything).Return()

		resp, err := uc.CheckAvailability(context.Background(), CheckAvailabilityRequest{EventID: "EVT-1", Quantity: 10})

		require.NoError(t, err)
		assert.False(t, resp.Sufficient)
	})

	t.Run("computes sufficiency from a cached availability view", func(t *testing.T) {
		uc, eventRepo, cache := newEventUseCaseWithMocks()

		cache.On("GetAvailability", mock.Anything, "EVT-1", mock.Anything).Run(func(args mock.Arguments) {
			dest := args.Get(2).(*AvailabilityResponse)
			dest.EventID = "EVT-1"
			dest.AvailableTickets = 8
			dest.TotalTickets = 100
		}).Return(true)

		resp, err := uc.CheckAvailability(context.Background(), CheckAvailabilityRequest{EventID: "EVT-1", Quantity: 8})

		require.NoError(t, err)
		assert.True(t, resp.Sufficient)

		eventRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})
}
