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
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, e Event, tx *sql.Tx) error
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	Update(ctx context.Context, ID string, e Event, tx *sql.Tx) error
	Delete(ctx context.Context, ID string, tx *sql.Tx) error
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

// BeginTx implements EventRepository.
func (r *eventRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements EventRepository.
func (r *eventRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements EventRepository.
func (r *eventRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

// Save implements EventRepository.
func (r *eventRepository) Save(ctx context.Context, e Event, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO event
		(
			id, name, description, venue, event_date, total_tickets, available_tickets, price, created_by, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, e.ID, e.Name, e.Description, e.Venue, e.Date, e.TotalTickets, e.AvailableTickets, e.Price, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event's properties")
	}

	return nil
}

// FindByIDForUpdate implements EventRepository.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, name, description, venue, event_date, total_tickets, available_tickets, price, created_by, created_at, updated_at
		FROM event
		WHERE
			id = $1
		FOR UPDATE
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties for update")
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
		return Event{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties for update")
	}

	return data, nil
}

// Update implements EventRepository.
func (r *eventRepository) Update(ctx context.Context, ID string, e Event, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			name = $1,
			description = $2,
			venue = $3,
			event_date = $4,
			total_tickets = $5,
			available_tickets = $6,
			price = $7,
			updated_at = $8
		WHERE id = $9
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, e.Name, e.Description, e.Venue, e.Date, e.TotalTickets, e.AvailableTickets, e.Price, e.UpdatedAt, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}

	return nil
}

// Delete implements EventRepository.
func (r *eventRepository) Delete(ctx context.Context, ID string, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		DELETE FROM event
		WHERE id = $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting event's properties")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting event's properties")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting event's properties")
	}

	if affected == 0 {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event with id '%s' is not found", ID))
	}

	return nil
}
