package e

import (
	"errors"
	"fmt"
)

// Kind классифицирует бизнес-ошибки, которые видны клиенту.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
)

// Error: бизнес-ошибка с сообщением, которое можно отдавать клиенту как есть.
type Error struct {
	Kind    Kind
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

// ValidationError описывает первое нарушенное ограничение поля во входных данных.
type ValidationError struct {
	Field   string
	Message string
}

func (err *ValidationError) Error() string {
	return err.Field + ": " + err.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var (
	// 404 Not Found
	ErrCategoryNotFound = &Error{Kind: KindNotFound, Message: "category not found"}
	ErrProductNotFound  = &Error{Kind: KindNotFound, Message: "product not found"}
	ErrOrderNotFound    = &Error{Kind: KindNotFound, Message: "order not found"}
	ErrRouteNotFound    = &Error{Kind: KindNotFound, Message: "resource not found"}

	// 400 Bad Request: зависимости мешают удалению
	ErrCategoryHasProducts = &Error{Kind: KindConflict, Message: "category has linked products and cannot be deleted"}
	ErrProductHasOrders    = &Error{Kind: KindConflict, Message: "product is linked to orders and cannot be deleted"}
	ErrReferencedEntity    = &Error{Kind: KindConflict, Message: "entity is referenced by other records"}

	// 400 Bad Request: жизненный цикл заказа
	ErrStatusUpToDate      = &Error{Kind: KindConflict, Message: "status already up to date"}
	ErrCompletedToApproved = &Error{Kind: KindConflict, Message: "cannot move completed order back to approved"}
	ErrCancelledOrder      = &Error{Kind: KindConflict, Message: "cannot change a cancelled order"}
	ErrBackToOpen          = &Error{Kind: KindConflict, Message: "cannot move an order back to open"}

	// 500 Internal Server Error
	ErrInternalServerError = errors.New("something went wrong, try again later")

	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")
	ErrUnknownDriver        = errors.New("unknown driver")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// IsKind сообщает, содержит ли цепочка бизнес-ошибку указанного вида.
func IsKind(err error, kind Kind) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

func IsConflict(err error) bool {
	return IsKind(err, KindConflict)
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// IsPermanent сообщает, что повтор операции не изменит результат:
// ошибки валидации, отсутствующие сущности и нарушения бизнес-правил.
func IsPermanent(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsConflict(err)
}
