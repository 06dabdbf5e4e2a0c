package pgdb

import (
	"errors"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapError переводит ошибки драйвера в ошибки домена.
// notFound возвращается для pgx.ErrNoRows.
func mapError(err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return e.NewValidationError("name", "the name has already been taken")
		case foreignKeyViolation:
			return e.ErrReferencedEntity
		}
	}

	return err
}

// orderBy собирает ORDER BY из белого списка колонок. Второй ключ: id по возрастанию.
// alias добавляется перед колонками, когда в запросе несколько таблиц.
func orderBy(columns map[string]string, sortBy string, desc bool, alias string) (string, error) {
	column, ok := columns[sortBy]
	if !ok {
		return "", e.NewValidationError("sortBy", "the selected sortBy is invalid")
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	if column == "id" {
		return "ORDER BY " + alias + "id " + dir, nil
	}

	return "ORDER BY " + alias + column + " " + dir + ", " + alias + "id ASC", nil
}
