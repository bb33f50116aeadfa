package event

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type EventRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	FindMany(ctx context.Context, filter Filter, tx *sql.Tx) ([]Event, error)
	DecrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error
	IncrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type eventRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewEventRepository(logger *logrus.Logger, db *sql.DB) EventRepository {
	return &eventRepository{
		logger: logger,
		db:     db,
	}
}

const eventColumns = `id, name, description, venue, event_date, total_tickets, available_tickets, price, created_by, created_at, updated_at`

func (r *eventRepository) findByID(ctx context.Context, ID string, forUpdate bool, tx *sql.Tx) (Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM event
		WHERE
			id = $1
	`, eventColumns)

	if forUpdate {
		query += ` FOR UPDATE`
	} else {
		query += ` LIMIT 1`
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data Event
	err = row.Scan(
		&data.ID, &data.Name, &data.Description, &data.Venue, &data.Date,
		&data.TotalTickets, &data.AvailableTickets, &data.Price, &data.CreatedBy,
		&data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}

	return data, nil
}

// FindByID implements EventRepository.
func (r *eventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.findByID(ctx, ID, false, tx)
}

// FindByIDForUpdate implements EventRepository.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.findByID(ctx, ID, true, tx)
}

// FindMany implements EventRepository.
func (r *eventRepository) FindMany(ctx context.Context, filter Filter, tx *sql.Tx) ([]Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM event
		WHERE
			($1 = '' OR venue ILIKE '%%' || $1 || '%%')
		AND
			($2::timestamptz IS NULL OR event_date >= $2)
		ORDER BY event_date ASC
	`, eventColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, filter.Venue, filter.DateFrom)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
	}

	defer rows.Close()

	var data = make([]Event, 0)
	for rows.Next() {
		var e Event
		err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.Venue, &e.Date,
			&e.TotalTickets, &e.AvailableTickets, &e.Price, &e.CreatedBy,
			&e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
		}

		data = append(data, e)
	}

	return data, nil
}

// DecrementAvailability implements EventRepository. The decrement is
// conditional on sufficient availability so a concurrent hold can never drive
// the counter below zero.
func (r *eventRepository) DecrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			available_tickets = available_tickets - $1,
			updated_at = now()
		WHERE
			id = $2
		AND
			available_tickets >= $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's availability")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, quantity, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's availability")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's availability")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, "insufficient tickets available")
	}

	return nil
}

// IncrementAvailability implements EventRepository.
func (r *eventRepository) IncrementAvailability(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			available_tickets = available_tickets + $1,
			updated_at = now()
		WHERE
			id = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's availability")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, quantity, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's availability")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's availability")
	}

	if affected == 0 {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event with id '%s' is not found", ID))
	}

	return nil
}
