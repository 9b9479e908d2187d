package apperr

import (
	"fmt"
	"net/http"
)

// FieldErrors collects per-field validation messages in insertion order.
type FieldErrors struct {
	order  []string
	fields map[string][]string
}

// NewFieldErrors returns an empty collector.
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{fields: make(map[string][]string)}
}

// Add records a message against field.
func (f *FieldErrors) Add(field, message string) {
	if _, ok := f.fields[field]; !ok {
		f.order = append(f.order, field)
	}
	f.fields[field] = append(f.fields[field], message)
}

// Has reports whether field already has at least one message.
func (f *FieldErrors) Has(field string) bool {
	return len(f.fields[field]) > 0
}

// Len returns the total number of messages.
func (f *FieldErrors) Len() int {
	total := 0
	for _, msgs := range f.fields {
		total += len(msgs)
	}
	return total
}

// Err returns nil when nothing was recorded, otherwise a VALIDATION_ERROR.
func (f *FieldErrors) Err() error {
	if f == nil || f.Len() == 0 {
		return nil
	}
	return Validation(f)
}

// Validation builds the 400 error carrying field_errors, error_summary and total_errors.
func Validation(f *FieldErrors) *Error {
	summary := make([]string, 0, f.Len())
	fieldErrors := make(map[string][]string, len(f.fields))
	for _, field := range f.order {
		msgs := f.fields[field]
		fieldErrors[field] = append([]string(nil), msgs...)
		for _, msg := range msgs {
			summary = append(summary, fmt.Sprintf("%s: %s", field, msg))
		}
	}

	return New(http.StatusBadRequest, CodeValidation,
		fmt.Sprintf("input validation failed (%d errors)", len(summary))).
		WithDetails(map[string]any{
			"field_errors":  fieldErrors,
			"error_summary": summary,
			"total_errors":  len(summary),
		})
}

// FieldError is a shortcut for a single-field validation failure.
func FieldError(field, message string) *Error {
	f := NewFieldErrors()
	f.Add(field, message)
	return Validation(f)
}
