package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type contextKey struct{}

var accountContextKey = contextKey{}

func SetAccountToCtx(ctx context.Context, acc Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acc)
}

func GetAccountFromCtx(ctx context.Context) (Account, error) {
	acc, ok := ctx.Value(accountContextKey).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "no account attached to this request")
	}

	return acc, nil
}

type Store interface {
	Get(ctx context.Context, accountID string) (Account, error)
	Set(ctx context.Context, acc Account, ttl time.Duration) error
	Delete(ctx context.Context, accountID string) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	rc     *redis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, rc *redis.Client) Store {
	return &redisSessionStore{
		logger: logger,
		rc:     rc,
	}
}

func sessionKey(accountID string) string {
	return fmt.Sprintf("session:%s", accountID)
}

// Get implements Store.
func (s *redisSessionStore) Get(ctx context.Context, accountID string) (Account, error) {
	buff, err := s.rc.Get(ctx, sessionKey(accountID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is not found or has expired")
		}
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	var acc Account
	if err := json.Unmarshal(buff, &acc); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	return acc, nil
}

// Set implements Store.
func (s *redisSessionStore) Set(ctx context.Context, acc Account, ttl time.Duration) error {
	buff, err := json.Marshal(acc)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while storing the session")
	}

	if err := s.rc.Set(ctx, sessionKey(acc.ID), buff, ttl).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while storing the session")
	}

	return nil
}

// Delete implements Store.
func (s *redisSessionStore) Delete(ctx context.Context, accountID string) error {
	if err := s.rc.Del(ctx, sessionKey(accountID)).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting the session")
	}

	return nil
}
