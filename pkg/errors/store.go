package errors

import (
	stdErrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// FromStore maps a repository error onto the API error taxonomy. Missing rows
// become NOT_FOUND, unique violations become CONFLICT and everything else is
// a PERSISTENCE_ERROR wrapping the cause.
func FromStore(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case As(err) != nil:
		return err
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return New(CodeNotFound, entity+" not found")
	case isUniqueViolation(err):
		return Wrap(CodeConflict, err, entity+" already exists")
	default:
		return Wrap(CodePersistence, err, "load "+entity)
	}
}

func isUniqueViolation(err error) bool {
	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	// sqlite surfaces constraint failures only as text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
