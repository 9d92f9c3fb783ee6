package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	apperrors "github.com/killallgit/songscraper/pkg/errors"
	"gorm.io/gorm"
)

// Common errors
var (
	ErrDuplicateSong    = errors.New("song already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrSentinelTerm     = errors.New("empty or sentinel term name")
)

// unavailableError marks a failure that came from losing the datastore
type unavailableError struct {
	cause *apperrors.AppError
}

func (e unavailableError) Error() string { return e.cause.Error() }

func (e unavailableError) Unwrap() error { return e.cause }

func (e unavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// classify maps a raw gorm error onto the catalog error set
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicateSong)
	}
	if isConnectivity(err) {
		return unavailableError{cause: apperrors.ConnectionError(op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectivity(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
