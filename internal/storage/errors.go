package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"daan/internal/core"
)

// classify wraps a driver error in the matching core error class. The
// original error stays in the chain for logging.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrConstraint) || errors.Is(err, core.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%s: %w: %w", op, core.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}
