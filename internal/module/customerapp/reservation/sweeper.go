package reservation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/internal/module/customerapp/event"
	"github.com/tixhub/tix-reservation/internal/pkg/eventcache"
	"github.com/tixhub/tix-reservation/pkg/pubsub"
)

var (
	sweepReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_sweep_released_total",
		Help: "Total expired holds released back to inventory",
	})

	sweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_sweep_failures_total",
		Help: "Total expired holds the sweeper failed to release",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reservation_sweep_duration_seconds",
		Help:    "Duration of a full sweep pass",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

// ExpirySweeper periodically releases inventory held by pending reservations
// whose deadline has passed. It shares no in-process state with the engine;
// all coordination goes through the store's transactions, so it is safe to
// run in a separate replica.
type ExpirySweeper struct {
	logger                *logrus.Logger
	interval              time.Duration
	batchSize             int64
	eventRepository       event.EventRepository
	reservationRepository ReservationRepository
	publisher             pubsub.Publisher
	cache                 eventcache.Cache
}

type ExpirySweeperProperty struct {
	Logger                *logrus.Logger
	Interval              time.Duration
	BatchSize             int64
	EventRepository       event.EventRepository
	ReservationRepository ReservationRepository
	Publisher             pubsub.Publisher
	Cache                 eventcache.Cache
}

func NewExpirySweeper(props ExpirySweeperProperty) *ExpirySweeper {
	batchSize := props.BatchSize
	if batchSize < 1 {
		batchSize = 500
	}

	return &ExpirySweeper{
		logger:                props.Logger,
		interval:              props.Interval,
		batchSize:             batchSize,
		eventRepository:       props.EventRepository,
		reservationRepository: props.ReservationRepository,
		publisher:             props.Publisher,
		cache:                 props.Cache,
	}
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every tick.
func (s *ExpirySweeper) Run(ctx context.Context) {
	s.logger.WithField("interval", s.interval.String()).Info("expiry sweeper started")

	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one scan-and-release pass and returns how many holds it
// released. Each due reservation is handled in its own transaction; a failure
// on one never aborts the rest of the pass.
func (s *ExpirySweeper) Sweep(ctx context.Context) int64 {
	start := time.Now()
	defer func() {
		sweepDuration.Observe(time.Since(start).Seconds())
	}()

	due, err := s.reservationRepository.FindManyExpired(ctx, time.Now(), s.batchSize, nil)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("sweep pass failed to list expired holds")
		return 0
	}

	var released int64
	for _, rsv := range due {
		swept, err := s.sweepOne(ctx, rsv.ID)
		if err != nil {
			sweepFailures.Inc()
			s.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
				"reservationId": rsv.ID,
				"eventId":       rsv.EventID,
			}).Error("failed to release expired hold")
			continue
		}

		if !swept {
			continue
		}

		released++
		sweepReleased.Inc()

		buff, _ := json.Marshal(StateTransitionEvent{
			ReservationID: rsv.ID,
			EventID:       rsv.EventID,
			UserID:        rsv.UserID,
			Quantity:      rsv.Quantity,
			Status:        StatusExpired,
			OccurredAt:    time.Now(),
		})
		s.publisher.Publish(ctx, TopicReservationExpired, rsv.EventID, nil, buff)
		s.cache.InvalidateEvent(ctx, rsv.EventID)
	}

	if released > 0 {
		s.logger.WithContext(ctx).WithField("released", released).Info("released expired holds")
	}

	return released
}

// sweepOne re-reads the reservation under a row lock and releases it only if
// it is still an overdue pending hold, so re-running the sweep can never
// credit an event twice.
func (s *ExpirySweeper) sweepOne(ctx context.Context, ID string) (bool, error) {
	tx, err := s.reservationRepository.BeginTx(ctx)
	if err != nil {
		return false, err
	}

	rsv, err := s.reservationRepository.FindByIDForUpdate(ctx, ID, tx)
	if err != nil {
		s.reservationRepository.Rollback(ctx, tx)
		return false, err
	}

	if rsv.Status != StatusPending || rsv.HoldDeadline == nil || rsv.HoldDeadline.After(time.Now()) {
		s.reservationRepository.Rollback(ctx, tx)
		return false, nil
	}

	if err := s.eventRepository.IncrementAvailability(ctx, rsv.EventID, rsv.Quantity, tx); err != nil {
		s.reservationRepository.Rollback(ctx, tx)
		return false, err
	}

	rsv.Status = StatusExpired
	rsv.HoldDeadline = nil
	rsv.UpdatedAt = time.Now()

	if err := s.reservationRepository.UpdateStatus(ctx, rsv.ID, rsv, tx); err != nil {
		s.reservationRepository.Rollback(ctx, tx)
		return false, err
	}

	if err := s.reservationRepository.CommitTx(ctx, tx); err != nil {
		return false, err
	}

	return true, nil
}
