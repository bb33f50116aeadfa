package postgresql

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Option struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewDatabase opens a pgx-backed database/sql handle. The handle is owned by
// the caller and injected into repositories.
func NewDatabase(opt Option) (*sql.DB, error) {
	db, err := sql.Open("pgx", opt.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opt.MaxOpenConns)
	db.SetMaxIdleConns(opt.MaxIdleConns)
	db.SetConnMaxLifetime(opt.ConnMaxLifetime)

	return db, nil
}

// IsRetryable reports whether the error is a transient transaction conflict
// (serialization failure or deadlock) worth retrying.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
