package middleware

import (
	"net/http"

	"github.com/tixhub/tix-reservation/internal/pkg/jwt"
	"github.com/tixhub/tix-reservation/internal/pkg/session"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/response"
	"github.com/tixhub/tix-reservation/pkg/status"
)

const roleAdmin = "admin"

type AdminSession struct {
	jsonWebToken *jwt.JSONWebToken
	sessionStore session.Store
}

func NewAdminSessionMiddleware(jsonWebToken *jwt.JSONWebToken, sessionStore session.Store) *AdminSession {
	return &AdminSession{
		jsonWebToken: jsonWebToken,
		sessionStore: sessionStore,
	}
}

func (m *AdminSession) Verify(next http.HandlerFunc) http.HandlerFunc {
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

		if claims.Role != roleAdmin {
			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "admin role is required",
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
