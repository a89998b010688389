package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Duplicate-key errors surfaced by the unique indexes. The database is the
// source of truth for uniqueness; these let the losing side of a concurrent
// registration still get a conflict response instead of a 500.
var (
	ErrDuplicateUser     = errors.New("username or email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// mapDuplicateKeyError converts a MySQL duplicate-entry error (1062) into
// the matching sentinel, keyed on which unique index rejected the row.
func mapDuplicateKeyError(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != 1062 {
		return err
	}
	switch {
	case strings.Contains(mysqlErr.Message, "uq_users_username"):
		return ErrDuplicateUsername
	case strings.Contains(mysqlErr.Message, "uq_users_email"):
		return ErrDuplicateEmail
	default:
		return ErrDuplicateUser
	}
}
