package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// TimeChecker decides whether a request arriving at t may proceed.
type TimeChecker interface {
	CheckTime(t time.Time) error
}

// AllowedTime rejects requests inside the checker's blocked window. It runs
// before authentication so the window applies to every caller.
func AllowedTime(checker TimeChecker, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		if err := checker.CheckTime(now()); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}
