package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesCodeAndMessage(t *testing.T) {
	sentinel := NotFound("post")

	assert.True(t, errors.Is(NotFound("post"), sentinel))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", sentinel), sentinel))
	assert.False(t, errors.Is(NotFound("category"), sentinel), "same code, different resource")
	assert.False(t, errors.Is(sentinel.WithMessage("post 7 does not exist"), sentinel))
	assert.False(t, errors.Is(PermissionDenied("nope"), sentinel))
}

func TestOfCodeMatchesAnyMessage(t *testing.T) {
	custom := NotFound("post").WithMessage("post 7 does not exist")

	assert.True(t, errors.Is(custom, OfCode(CodeNotFound)))
	assert.True(t, errors.Is(PostConflict("hello"), OfCode(CodePostConflict)))
	assert.False(t, errors.Is(custom, OfCode(CodePostConflict)))
}

func TestFromTreatsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("disk on fire")
	got := From(cause)

	require.NotNil(t, got)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.ErrorIs(t, got, cause)

	conflict := PostConflict("hello")
	assert.Same(t, conflict, From(fmt.Errorf("ctx: %w", conflict)))
	assert.Nil(t, From(nil))
}

func TestValidationCollectsAllFields(t *testing.T) {
	fields := NewFieldErrors()
	fields.Add("title", "this field is required")
	fields.Add("content", "must be at least 5 characters")
	fields.Add("title", "must be at most 30 characters")

	err := fields.Err()
	require.Error(t, err)

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, 3, appErr.Details["total_errors"])
	assert.Equal(t, []string{
		"title: this field is required",
		"title: must be at most 30 characters",
		"content: must be at least 5 characters",
	}, appErr.Details["error_summary"])
}

func TestEmptyFieldErrorsIsNil(t *testing.T) {
	assert.NoError(t, NewFieldErrors().Err())
}

func TestPayloadEnvelope(t *testing.T) {
	payload := Payload(DailyPostLimit("alice", 1))

	assert.Equal(t, false, payload["success"])
	body, ok := payload["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, CodeDailyPostLimit, body["code"])
	assert.Equal(t, http.StatusTooManyRequests, body["status_code"])

	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["max_posts_per_day"])
	assert.Equal(t, "alice", details["user"])
}
