package storage

import "errors"

// ErrNotFound is returned when a narrow getter finds no matching row.
var ErrNotFound = errors.New("storage: not found")

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505). The idempotent inserts in this package detect a
// duplicate with ON CONFLICT DO NOTHING and the affected-row count instead
// and do not call it.
func isUniqueViolation(err error) bool {
	var pgErr pgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

// pgError is the subset of *pgconn.PgError this package depends on, kept
// narrow so the detection helper above stays a one-line adapter over pgx.
type pgError interface {
	error
	SQLState() string
}
