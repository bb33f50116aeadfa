package middleware

import (
	"net/http"
	"strings"

	"github.com/tixhub/tix-reservation/internal/pkg/jwt"
	"github.com/tixhub/tix-reservation/internal/pkg/session"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/response"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type CustomerSession struct {
	jsonWebToken *jwt.JSONWebToken
	sessionStore session.Store
}

func NewCustomerSessionMiddleware(jsonWebToken *jwt.JSONWebToken, sessionStore session.Store) *CustomerSession {
	return &CustomerSession{
		jsonWebToken: jsonWebToken,
		sessionStore: sessionStore,
	}
}

func bearerToken(r *http.Request) (string, error) {
	authorization := r.Header.Get("Authorization")
	if !strings.HasPrefix(authorization, "Bearer ") {
		return "", errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "no bearer token provided")
	}

	token := strings.TrimPrefix(authorization, "Bearer ")
	if token == "" {
		return "", errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "no bearer token provided")
	}

	return token, nil
}

func (m *CustomerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := bearerToken(r)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		claims, err := m.jsonWebToken.Parse(token)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		acc, err := m.sessionStore.Get(ctx, claims.Subject)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		ctx = session.SetAccountToCtx(ctx, acc)

		next(w, r.WithContext(ctx))
	}
}
