package reservation

type PlaceHoldRequest struct {
	EventID  string `json:"event_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,min=1,max=100"`
}

type ConfirmHoldRequest struct {
	ReservationID string `validate:"required"`
}

type CancelHoldRequest struct {
	ReservationID string `validate:"required"`
}

type GetReservationRequest struct {
	ReservationID string `validate:"required"`
}
