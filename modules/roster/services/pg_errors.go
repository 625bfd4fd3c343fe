package services

import (
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrBatchNotClean is returned by Import when the batch carries
	// validation issues and partial import was not requested.
	ErrBatchNotClean = gerrors.New("batch has validation issues")
	// ErrImportConflict is returned after all bounded retry attempts hit
	// serialization conflicts with concurrent imports.
	ErrImportConflict = gerrors.New("import conflicts with a concurrent operation")
)

// isRetryableConflict reports whether the transaction failed in a way a
// fresh attempt can resolve. A unique violation counts: the next attempt
// re-reads the table and sees the competing record as an active duplicate.
func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	}
	return false
}
