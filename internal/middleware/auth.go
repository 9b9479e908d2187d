package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/apperr"
)

const (
	userIDKey = "user_id"
	// SessionUserKey is the session field written by login.
	SessionUserKey = "user_id"
)

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	Parse(token string) (uint, error)
}

// Authenticate identifies the caller from a Bearer token or the login session.
// It never rejects; RequireAuth does.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, token, ok := strings.Cut(header, " ")
			if ok && strings.EqualFold(scheme, "Bearer") && tokens != nil {
				if uid, err := tokens.Parse(strings.TrimSpace(token)); err == nil {
					c.Set(userIDKey, uid)
				}
			}
			c.Next()
			return
		}

		if uid, ok := sessionUserID(c); ok {
			c.Set(userIDKey, uid)
		}
		c.Next()
	}
}

// RequireAuth 未登录时返回 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			abortWithError(c, apperr.NotAuthenticated("authentication credentials were not provided"))
			return
		}
		c.Next()
	}
}

// RequireAuthForWrites lets read methods through anonymously.
func RequireAuthForWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if _, ok := UserID(c); !ok {
			abortWithError(c, apperr.NotAuthenticated("authentication credentials were not provided"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := value.(uint)
	return uid, ok && uid != 0
}

func sessionUserID(c *gin.Context) (uint, bool) {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return 0, false
	}
	switch v := sessions.Default(c).Get(SessionUserKey).(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v != 0
	}
	return 0, false
}
