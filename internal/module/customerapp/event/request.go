package event

type GetManyEventRequest struct {
	Venue    string `validate:"omitempty,max=120"`
	DateFrom string `validate:"omitempty,datetime=2006-01-02"`
}

type GetEventRequest struct {
	EventID string `validate:"required"`
}

type CheckAvailabilityRequest struct {
	EventID  string `validate:"required"`
	Quantity int64  `validate:"required,min=1"`
}
