package usecase

import (
	"fmt"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// maxAmount: верхняя граница NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

type fieldCheck struct {
	name  string
	value any
	rules []validation.Rule
}

func check(name string, value any, rules ...validation.Rule) fieldCheck {
	return fieldCheck{name: name, value: value, rules: rules}
}

// firstInvalid проверяет поля по порядку и возвращает ошибку первого невалидного.
func firstInvalid(checks ...fieldCheck) error {
	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return e.NewValidationError(c.name, err.Error())
		}
	}

	return nil
}

func required(field string) validation.Rule {
	return validation.Required.Error(fmt.Sprintf("the %s field is required", field))
}

func present(field string) validation.Rule {
	return validation.NotNil.Error(fmt.Sprintf("the %s field is required", field))
}

func notEmptyIfSet(field string) validation.Rule {
	return validation.NilOrNotEmpty.Error(fmt.Sprintf("the %s field must not be empty", field))
}

func nameLength(field string) validation.Rule {
	return validation.RuneLength(1, domain.NameMaxLength).
		Error(fmt.Sprintf("the %s field must not be greater than %d characters", field, domain.NameMaxLength))
}

func atLeastOne(field string) validation.Rule {
	return validation.By(func(value any) error {
		if q, ok := value.(*int64); ok && q != nil && *q < 1 {
			return fmt.Errorf("the %s field must be at least 1", field)
		}

		return nil
	})
}

// amount проверяет денежное значение: не меньше нуля, не больше двух знаков после запятой.
func amount(field string) validation.Rule {
	return validation.By(func(value any) error {
		d, ok := value.(*decimal.Decimal)
		if !ok || d == nil {
			return nil
		}

		switch {
		case d.IsNegative():
			return fmt.Errorf("the %s field must be at least 0", field)
		case !d.Equal(d.Round(2)):
			return fmt.Errorf("the %s field must have at most 2 decimal places", field)
		case d.GreaterThanOrEqual(maxAmount):
			return fmt.Errorf("the %s field must be less than %s", field, maxAmount.String())
		}

		return nil
	})
}

func orderStatus(field string) validation.Rule {
	allowed := make([]any, 0, len(domain.OrderStatuses))
	for _, st := range domain.OrderStatuses {
		allowed = append(allowed, string(st))
	}

	return validation.In(allowed...).Error(fmt.Sprintf("the selected %s is invalid", field))
}

func selectedInvalid(field string) error {
	return e.NewValidationError(field, fmt.Sprintf("the selected %s is invalid", field))
}

func nameTaken(field string) error {
	return e.NewValidationError(field, fmt.Sprintf("the %s has already been taken", field))
}
