package event

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
	Validate     *validator.Validate
	EventUseCase EventUseCase
}

func InitHTTPHandler(router *mux.Router, adminSession *middleware.AdminSession, validate *validator.Validate, eventUseCase EventUseCase) {
	handler := &HTTPHandler{
		Validate:     validate,
		EventUseCase: eventUseCase,
	}

	router.HandleFunc("/tix-reservation/v1/adminapp/events", publicMiddleware.SetRouteChain(handler.CreateEvent, adminSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tix-reservation/v1/adminapp/events/{eventId}", publicMiddleware.SetRouteChain(handler.UpdateEvent, adminSession.Verify)).Methods(http.MethodPut)
	router.HandleFunc("/tix-reservation/v1/adminapp/events/{eventId}", publicMiddleware.SetRouteChain(handler.DeleteEvent, adminSession.Verify)).Methods(http.MethodDelete)
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

func (handler HTTPHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateEventRequest{}
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

	resp, err := handler.EventUseCase.CreateEvent(ctx, req)
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
		Message: "event has been successfully created",
		Data:    resp,
	})
}

func (handler HTTPHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := UpdateEventRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	req.EventID = mux.Vars(r)["eventId"]

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventUseCase.UpdateEvent(ctx, req)
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
		Message: "event has been successfully updated",
		Data:    resp,
	})
}

func (handler HTTPHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := DeleteEventRequest{
		EventID: mux.Vars(r)["eventId"],
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	if err := handler.EventUseCase.DeleteEvent(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event has been successfully deleted",
	})
}
