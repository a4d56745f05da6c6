// Package models contains the database access layer. Each model wraps one
// area of the schema and retries transient failures through dbretry.
package models

import (
	"database/sql"
	"errors"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
