package event

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

// ReservationRepository is the admin app's narrow view of the reservation
// ledger; it only needs to know whether live reservations still reference an
// event.
type ReservationRepository interface {
	CountActiveByEventID(ctx context.Context, eventID string, tx *sql.Tx) (int64, error)
}

type reservationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewReservationRepository(logger *logrus.Logger, db *sql.DB) ReservationRepository {
	return &reservationRepository{
		logger: logger,
		db:     db,
	}
}

// CountActiveByEventID implements ReservationRepository. Active means pending
// or confirmed; cancelled and expired holds no longer hold inventory.
func (r *reservationRepository) CountActiveByEventID(ctx context.Context, eventID string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM reservation
		WHERE
			event_id = $1
		AND
			status IN ('PENDING', 'CONFIRMED')
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting event's reservations")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, eventID)

	var count int64
	if err := row.Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting event's reservations")
	}

	return count, nil
}
