package reservation

import "time"

const (
	TopicReservationPlaced    = "reservation-placed"
	TopicReservationConfirmed = "reservation-confirmed"
	TopicReservationCancelled = "reservation-cancelled"
	TopicReservationExpired   = "reservation-expired"
)

// StateTransitionEvent is published on every reservation state change, keyed
// by event id so downstream availability views can invalidate themselves. It
// is best-effort; the engine's invariant never depends on its delivery.
type StateTransitionEvent struct {
	ReservationID string    `json:"reservation_id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	Quantity      int64     `json:"quantity"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}
