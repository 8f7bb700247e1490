package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// Errors collects validation messages per input field. It is rendered as the
// "errors" member of the response envelope.
type Errors map[string][]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e[field], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err returns e as an error, or nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator is implemented by request bodies.
type Validator interface {
	Validate() Errors
}

// DecodeAndValidate decodes the JSON body of r into v and validates it.
// A malformed body is reported as a validation error on the "body" field.
func DecodeAndValidate(r *http.Request, v Validator) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return Errors{"body": {"O corpo da requisição não é um JSON válido."}}
	}
	return v.Validate().Err()
}

// Required records a message when value is blank.
func (e Errors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, fmt.Sprintf("O campo %s é obrigatório.", field))
		return false
	}
	return true
}

// MaxLen records a message when value exceeds max characters.
func (e Errors) MaxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, fmt.Sprintf("O campo %s não pode ter mais de %d caracteres.", field, max))
	}
}

// MinLen records a message when value is shorter than min characters.
func (e Errors) MinLen(field, value string, min int) {
	if utf8.RuneCountInString(value) < min {
		e.Add(field, fmt.Sprintf("O campo %s deve ter no mínimo %d caracteres.", field, min))
	}
}

// Email records a message when a non-empty value is not an e-mail address.
func (e Errors) Email(field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		e.Add(field, fmt.Sprintf("O campo %s deve ser um endereço de e-mail válido.", field))
	}
}

// OneOf records a message when a non-empty value is not in allowed.
func (e Errors) OneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add(field, fmt.Sprintf("O campo %s deve ser um dos valores: %s.", field, strings.Join(allowed, ", ")))
}

// Digits strips every non-digit character, as done for CPF login keys.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
