// Package apperr defines the error type returned to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in the response envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotAuthenticated   = "NOT_AUTHENTICATED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodePostConflict       = "POST-CONFLICT"
	CodeCategoryConflict   = "CATEGORY-CONFLICT"
	CodeUsernameConflict   = "USERNAME-CONFLICT"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeDailyPostLimit     = "DAILY_POST_LIMIT_EXCEEDED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is a user-visible failure with a machine-readable code and HTTP status.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
	Err     error
}

// New builds an Error without details.
func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches an *Error with the same code and message. A target without a
// message (see OfCode) matches on the code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// OfCode returns a matcher for errors.Is that accepts any *Error with code.
func OfCode(code string) *Error {
	return &Error{Code: code}
}

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// BadRequest reports a malformed request (unparseable body or path values).
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound reports a missing entity.
func NotFound(resource string) *Error {
	return New(http.StatusNotFound, CodeNotFound, resource+" not found")
}

// NotAuthenticated reports a missing or invalid credential on a protected operation.
func NotAuthenticated(message string) *Error {
	return New(http.StatusUnauthorized, CodeNotAuthenticated, message)
}

// PermissionDenied reports an authorization failure.
func PermissionDenied(message string) *Error {
	return New(http.StatusForbidden, CodePermissionDenied, message)
}

// Conflict reports a uniqueness violation.
func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// PostConflict reports a duplicate post title.
func PostConflict(title string) *Error {
	return Conflict(CodePostConflict, fmt.Sprintf("a post titled '%s' already exists", title))
}

// DailyPostLimit reports that the user already wrote their posts for today.
func DailyPostLimit(username string, limit int) *Error {
	message := "daily post limit reached"
	if username != "" {
		message = fmt.Sprintf("'%s' has already written a post today; only %d post per day is allowed", username, limit)
	}
	return New(http.StatusTooManyRequests, CodeDailyPostLimit, message).WithDetails(map[string]any{
		"limit_type":        "daily post limit",
		"max_posts_per_day": limit,
		"user":              username,
		"reset_time":        "tomorrow 00:00 (midnight)",
		"suggestion":        "please try again tomorrow",
	})
}

// RateLimited reports that the caller exceeded the request rate limit.
func RateLimited() *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Payload renders the JSON error envelope.
func Payload(e *Error) map[string]any {
	body := map[string]any{
		"code":        e.Code,
		"message":     e.Message,
		"status_code": e.Status,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return map[string]any{
		"success": false,
		"error":   body,
	}
}
