package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tixhub/tix-reservation/internal/pkg/middleware"
	"github.com/tixhub/tix-reservation/pkg/errors"
	publicMiddleware "github.com/tixhub/tix-reservation/pkg/middleware"
	"github.com/tixhub/tix-reservation/pkg/response"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type HTTPHandler struct {
	Validate           *validator.Validate
	ReservationUseCase ReservationUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, reservationUseCase ReservationUseCase) {
	handler := &HTTPHandler{
		Validate:           validate,
		ReservationUseCase: reservationUseCase,
	}

	router.HandleFunc("/tix-reservation/v1/customerapp/reservations", publicMiddleware.SetRouteChain(handler.PlaceHold, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tix-reservation/v1/customerapp/reservations", publicMiddleware.SetRouteChain(handler.GetManyReservation, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tix-reservation/v1/customerapp/reservations/{reservationId}", publicMiddleware.SetRouteChain(handler.GetReservation, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tix-reservation/v1/customerapp/reservations/{reservationId}/confirm", publicMiddleware.SetRouteChain(handler.ConfirmHold, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tix-reservation/v1/customerapp/reservations/{reservationId}/cancel", publicMiddleware.SetRouteChain(handler.CancelHold, customerSession.Verify)).Methods(http.MethodPost)
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

func (handler HTTPHandler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := PlaceHoldRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.ReservationUseCase.PlaceHold(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "hold has been successfully placed",
		Data:    resp,
	})
}

func (handler HTTPHandler) ConfirmHold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := ConfirmHoldRequest{
		ReservationID: mux.Vars(r)["reservationId"],
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.ReservationUseCase.ConfirmHold(ctx, req)
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
		Message: "reservation has been successfully confirmed",
		Data:    resp,
	})
}

func (handler HTTPHandler) CancelHold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CancelHoldRequest{
		ReservationID: mux.Vars(r)["reservationId"],
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.ReservationUseCase.CancelHold(ctx, req)
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
		Message: "reservation has been successfully cancelled",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := GetReservationRequest{
		ReservationID: mux.Vars(r)["reservationId"],
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.ReservationUseCase.GetReservation(ctx, req)
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
		Message: "reservation detail",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetManyReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.ReservationUseCase.GetManyReservation(ctx)
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
		Message: "list of reservations",
		Data:    resp,
	})
}
