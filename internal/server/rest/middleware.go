package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/gin-gonic/gin"
)

const ownerIDKey = "ownerId"

// IdentityResolver maps a bearer credential onto an account id.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (string, error)
}

// Authenticate resolves the Authorization header and stores the caller's
// account id in the gin context.
func Authenticate(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authorization header required"})
			return
		}

		id, err := resolver.Resolve(c.Request.Context(), header)
		if err != nil {
			respondWithError(c, err)
			return
		}

		c.Set(ownerIDKey, id)
		c.Next()
	}
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerIDKey)
}

// RequestLogger logs one line per request once it has been served.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if last := c.Errors.Last(); last != nil {
			args = append(args, "error", last.Err)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "http request", args...)
		case status >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "http request", args...)
		default:
			logger.Info(c.Request.Context(), "http request", args...)
		}
	}
}
