package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/garagedesk/internal/observability/context"
	"github.com/smallbiznis/garagedesk/internal/observability/logger"
	"go.uber.org/zap"
)

const HeaderActorID = "X-Actor-ID"

// ActorContext tags the request with the staff member named in the
// X-Actor-ID header so audit entries can attribute changes.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID := strings.TrimSpace(c.GetHeader(HeaderActorID)); actorID != "" {
			ctx := obscontext.WithActor(c.Request.Context(), "staff", actorID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// WriteRateLimit throttles mutating requests per client address. Reads
// are never limited.
func (s *Server) WriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.writeLimiter.Enabled() || !isWriteMethod(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := s.writeLimiter.Allow(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("write rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			logger.FromContext(ctx).Warn("write rate limit exceeded",
				zap.String("route", c.FullPath()),
			)
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
