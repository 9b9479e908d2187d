package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/middleware"
	"github.com/postboard/internal/observability"
)

// respondError writes the error envelope; unexpected causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		observability.FromContext(c.Request.Context()).Error("request failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", appErr.Err))
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.Status, apperr.Payload(appErr))
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		message := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		respondError(c, apperr.BadRequest(message))
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest(fmt.Sprintf("invalid %s", key))
	}
	return uint(id), nil
}

func parseIntQuery(c *gin.Context, key string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

func parseUintQuery(c *gin.Context, key string) uint {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Query(key)), 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}

// currentUser returns the authenticated user id or writes a 401.
func currentUser(c *gin.Context) (uint, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		respondError(c, apperr.NotAuthenticated("authentication credentials were not provided"))
		return 0, false
	}
	return uid, true
}
