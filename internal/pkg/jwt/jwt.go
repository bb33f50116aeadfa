package jwt

import (
	"net/http"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type JSONWebToken struct {
	secret []byte
}

type Claims struct {
	Role string `json:"role"`
	gojwt.RegisteredClaims
}

func NewJSONWebToken(secret string) *JSONWebToken {
	return &JSONWebToken{
		secret: []byte(secret),
	}
}

func (j *JSONWebToken) Sign(subject, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)

	return token.SignedString(j.secret)
}

func (j *JSONWebToken) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "unexpected token signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid token")
	}

	if !token.Valid {
		return nil, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid token")
	}

	return claims, nil
}
