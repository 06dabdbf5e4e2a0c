package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

var errNotNumber = errors.New("not a number")

// object: тело запроса, разобранное до уровня полей.
// Типы полей проверяются по отдельности, чтобы ошибка указывала на конкретное поле.
type object map[string]json.RawMessage

func decodeBody(w http.ResponseWriter, r *http.Request) (object, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, e.NewValidationError("body", "the request body is too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return object{}, nil
	}

	return decodeObject(data, "body")
}

func decodeObject(data []byte, field string) (object, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s must be a JSON object", field))
	}

	return obj, nil
}

// raw возвращает значение поля; отсутствие и null одинаково означают «не передано».
func (o object) raw(field string) (json.RawMessage, bool) {
	v, ok := o[field]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}

	return v, true
}

func (o object) String(field string) (*string, error) {
	v, ok := o.raw(field)
	if !ok {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s field must be a string", field))
	}

	return &s, nil
}

func (o object) Int(field string) (*int64, error) {
	return o.intAs(field, field)
}

func (o object) intAs(key, field string) (*int64, error) {
	v, ok := o.raw(key)
	if !ok {
		return nil, nil
	}

	n, err := number(v)
	if err != nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s field must be an integer", field))
	}

	i, err := n.Int64()
	if err != nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s field must be an integer", field))
	}

	return &i, nil
}

// Decimal принимает число или строку с числом.
func (o object) Decimal(field string) (*decimal.Decimal, error) {
	return o.decimalAs(field, field)
}

func (o object) decimalAs(key, field string) (*decimal.Decimal, error) {
	v, ok := o.raw(key)
	if !ok {
		return nil, nil
	}

	var text string
	if n, err := number(v); err == nil {
		text = n.String()
	} else if err := json.Unmarshal(v, &text); err != nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s field must be a number", field))
	}

	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s field must be a number", field))
	}

	return &d, nil
}

// Objects читает массив объектов. Отсутствующий массив: nil без ошибки.
func (o object) Objects(field string) ([]object, error) {
	v, ok := o.raw(field)
	if !ok {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, e.NewValidationError(field, fmt.Sprintf("the %s field must be an array", field))
	}

	result := make([]object, 0, len(items))
	for i, item := range items {
		obj, err := decodeObject(item, fmt.Sprintf("%s.%d", field, i))
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}

	return result, nil
}

// number читает JSON-число. Строка с числом числом не считается.
func number(v json.RawMessage) (json.Number, error) {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return "", errNotNumber
	}

	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()

	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", err
	}

	return n, nil
}
