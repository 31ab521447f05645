package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/mattn/go-sqlite3"
)

// StorageErr tags failures that mean the database is unreachable or too busy
// to answer with game.ErrStorageUnavailable, so callers can tell a retryable
// outage from a bad request. Domain sentinels, constraint violations and
// cancelled contexts pass through untouched: a caller that gave up is not an
// outage.
func StorageErr(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", game.ErrStorageUnavailable, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		// database/sql keeps its closed-pool error unexported.
		strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %v", game.ErrStorageUnavailable, err)
	}
	return err
}
