package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/wordwise-srs/internal/store"
	"modernc.org/sqlite"
)

// SQLite result codes
const (
	constraintCode           = 19
	constraintPrimaryKeyCode = 1555
	constraintUniqueCode     = 2067
)

// MapError maps a database error to the matching store error.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch {
		case code == constraintPrimaryKeyCode || code == constraintUniqueCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case code&0xff == constraintCode:
			return fmt.Errorf("%w: constraint violation: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}
