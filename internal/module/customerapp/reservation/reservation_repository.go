package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tixhub/tix-reservation/pkg/errors"
	"github.com/tixhub/tix-reservation/pkg/status"
)

type ReservationRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, r Reservation, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error)
	FindManyByUserID(ctx context.Context, userID string, tx *sql.Tx) ([]Reservation, error)
	FindManyExpired(ctx context.Context, deadline time.Time, limit int64, tx *sql.Tx) ([]Reservation, error)
	UpdateStatus(ctx context.Context, ID string, r Reservation, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
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

// BeginTx implements ReservationRepository.
func (r *reservationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements ReservationRepository.
func (r *reservationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements ReservationRepository.
func (r *reservationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const reservationColumns = `id, event_id, user_id, quantity, total_price, status, hold_deadline, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (Reservation, error) {
	var data Reservation
	var holdDeadline sql.NullTime

	err := row.Scan(
		&data.ID, &data.EventID, &data.UserID, &data.Quantity, &data.TotalPrice,
		&data.Status, &holdDeadline, &data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		return Reservation{}, err
	}

	if holdDeadline.Valid {
		data.HoldDeadline = &holdDeadline.Time
	}

	return data, nil
}

func (r *reservationRepository) findByID(ctx context.Context, ID string, forUpdate bool, tx *sql.Tx) (Reservation, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM reservation
		WHERE
			id = $1
	`, reservationColumns)

	if forUpdate {
		query += ` FOR UPDATE`
	} else {
		query += ` LIMIT 1`
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting reservation's properties")
	}
	defer stmt.Close()

	data, err := scanReservation(stmt.QueryRowContext(ctx, ID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Reservation{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("reservation with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting reservation's properties")
	}

	return data, nil
}

// FindByID implements ReservationRepository.
func (r *reservationRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error) {
	return r.findByID(ctx, ID, false, tx)
}

// FindByIDForUpdate implements ReservationRepository.
func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error) {
	return r.findByID(ctx, ID, true, tx)
}

// FindManyByUserID implements ReservationRepository.
func (r *reservationRepository) FindManyByUserID(ctx context.Context, userID string, tx *sql.Tx) ([]Reservation, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM reservation
		WHERE
			user_id = $1
		ORDER BY created_at DESC
	`, reservationColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of reservation's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of reservation's properties")
	}

	defer rows.Close()

	var data = make([]Reservation, 0)
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of reservation's properties")
		}

		data = append(data, rsv)
	}

	return data, nil
}

// FindManyExpired implements ReservationRepository. Served by the index on
// (status, hold_deadline).
func (r *reservationRepository) FindManyExpired(ctx context.Context, deadline time.Time, limit int64, tx *sql.Tx) ([]Reservation, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM reservation
		WHERE
			status = $1
		AND
			hold_deadline < $2
		ORDER BY hold_deadline ASC
		LIMIT $3
	`, reservationColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting expired reservations")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, StatusPending, deadline, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting expired reservations")
	}

	defer rows.Close()

	var data = make([]Reservation, 0)
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting expired reservations")
		}

		data = append(data, rsv)
	}

	return data, nil
}

// Save implements ReservationRepository.
func (r *reservationRepository) Save(ctx context.Context, rsv Reservation, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO reservation
		(
			id, event_id, user_id, quantity, total_price, status, hold_deadline, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving reservation's properties")
	}
	defer stmt.Close()

	var holdDeadline sql.NullTime
	if rsv.HoldDeadline != nil {
		holdDeadline.Valid = true
		holdDeadline.Time = *rsv.HoldDeadline
	}

	_, err = stmt.ExecContext(ctx, rsv.ID, rsv.EventID, rsv.UserID, rsv.Quantity, rsv.TotalPrice, rsv.Status, holdDeadline, rsv.CreatedAt, rsv.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving reservation's properties")
	}

	return nil
}

// UpdateStatus implements ReservationRepository.
func (r *reservationRepository) UpdateStatus(ctx context.Context, ID string, rsv Reservation, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE reservation
		SET
			status = $1,
			hold_deadline = $2,
			updated_at = $3
		WHERE id = $4
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating reservation's properties")
	}
	defer stmt.Close()

	var holdDeadline sql.NullTime
	if rsv.HoldDeadline != nil {
		holdDeadline.Valid = true
		holdDeadline.Time = *rsv.HoldDeadline
	}

	_, err = stmt.ExecContext(ctx, rsv.Status, holdDeadline, rsv.UpdatedAt, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.Wrap(err, http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating reservation's properties")
	}

	return nil
}
