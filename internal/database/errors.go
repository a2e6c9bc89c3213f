package database

import (
	"database/sql"
	"errors"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// isUniqueViolation reports a duplicate-key error from either driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// mapWriteError converts driver errors into domain errors
func mapWriteError(resource string, err error) error {
	if isUniqueViolation(err) {
		return models.ConflictError{Resource: resource, Msg: "duplicate identifier", Err: err}
	}
	return err
}

// mapReadError converts sql.ErrNoRows into a NotFoundError
func mapReadError(resource, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFoundError{Resource: resource, ID: id, Err: err}
	}
	return err
}
