package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/postboard/internal/apperr"
)

// checkLength trims value and records a field error when its rune count is
// outside [min, max]. max <= 0 means unbounded.
func checkLength(errs *apperr.FieldErrors, field, value string, min, max int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		errs.Add(field, "this field is required")
		return trimmed
	}

	n := utf8.RuneCountInString(trimmed)
	switch {
	case n < min:
		errs.Add(field, fmt.Sprintf("must be at least %d characters", min))
	case max > 0 && n > max:
		errs.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return trimmed
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func totalPages(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
