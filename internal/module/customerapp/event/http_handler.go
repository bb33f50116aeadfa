package event

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tixhub/tix-reservation/pkg/errors"
	publicMiddleware "github.com/tixhub/tix-reservation/pkg/middleware"
	"github.com/tixhub/tix-reservation/pkg/response"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type HTTPHandler struct {
	Validate     *validator.Validate
	EventUseCase EventUseCase
}

func InitHTTPHandler(router *mux.Router, validate *validator.Validate, eventUseCase EventUseCase) {
	handler := &HTTPHandler{
		Validate:     validate,
		EventUseCase: eventUseCase,
	}

	router.HandleFunc("/tix-reservation/v1/customerapp/events", publicMiddleware.SetRouteChain(handler.GetManyEvent)).Methods(http.MethodGet)
	router.HandleFunc("/tix-reservation/v1/customerapp/events/{eventId}", publicMiddleware.SetRouteChain(handler.GetEvent)).Methods(http.MethodGet)
	router.HandleFunc("/tix-reservation/v1/customerapp/events/{eventId}/availability", publicMiddleware.SetRouteChain(handler.CheckAvailability)).Methods(http.MethodGet)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) GetManyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()

	req := GetManyEventRequest{
		Venue:    qs.Get("venue"),
		DateFrom: qs.Get("date_from"),
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventUseCase.GetManyEvent(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of events",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := GetEventRequest{
		EventID: mux.Vars(r)["eventId"],
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventUseCase.GetEvent(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event detail",
		Data:    resp,
	})
}

func (handler HTTPHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	quantity, _ := strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)

	req := CheckAvailabilityRequest{
		EventID:  mux.Vars(r)["eventId"],
		Quantity: quantity,
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventUseCase.CheckAvailability(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event availability",
		Data:    resp,
	})
}
