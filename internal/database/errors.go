package database

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation is the SQLSTATE for a unique constraint violation.
const UniqueViolation = "23505"

// Error classes that mean the session is gone, not that the statement failed.
const (
	classConnectionException  = "08"
	classOperatorIntervention = "57P"
)

// connLostPatterns are matched against errors pgx returns without a typed
// cause once a connection has been closed underneath it.
var connLostPatterns = []string{
	"conn closed",
	"connection reset",
	"broken pipe",
	"connection refused",
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// such as inserting an email that already exists.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}

// IsConnectionError reports whether err means the connection itself failed,
// as opposed to the server rejecting one statement. Callers treat the first
// kind as fatal for the whole run and the second as a per-row failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, classConnectionException) ||
			strings.HasPrefix(pgErr.Code, classOperatorIntervention)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range connLostPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
