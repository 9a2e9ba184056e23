package diag

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestID injects a unique X-Request-Id header into every request/response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Recovery recovers from panics, logs the stack to log and answers with an
// INTERNAL_ERROR body. A nil log uses the global logger.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l := log
				if l == nil {
					l = logger.GetGlobalLogger()
				}
				l.Error("Panic recovered", map[string]interface{}{
					logger.FieldError: fmt.Sprintf("%v", rec),
					"stack":           string(debug.Stack()),
					"path":            c.Request.URL.Path,
					"method":          c.Request.Method,
					"request_id":      c.GetString("request_id"),
				})
				appErr := errors.Internal(fmt.Errorf("panic: %v", rec))
				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToResponse())
			}
		}()
		c.Next()
	}
}
