package middleware

import (
	"context"
	"net/http"
	"strconv"

	"chapel-site/internal/redis"
	"chapel-site/internal/services"
	"chapel-site/internal/transport/httpdto"
	"chapel-site/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter is the subset of redis.RateLimiter the HTTP layer needs.
type Limiter interface {
	AllowMessage(ctx context.Context, userID string) (*redis.RateLimitResult, error)
	AllowContact(ctx context.Context, ip string) (*redis.RateLimitResult, error)
	AllowAuth(ctx context.Context, ip string) (*redis.RateLimitResult, error)
}

type limitCheck func(ctx context.Context, key string) (*redis.RateLimitResult, error)

// AuthRateLimitMiddleware limits login and register attempts per client IP.
func AuthRateLimitMiddleware(limiter Limiter, l *logger.Logger) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowAuth, clientIPKey, "too many attempts", l)
}

// ContactRateLimitMiddleware limits contact form submissions per client IP.
func ContactRateLimitMiddleware(limiter Limiter, l *logger.Logger) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowContact, clientIPKey, "too many submissions", l)
}

// MessageRateLimitMiddleware limits chat sends per user. It must run after
// AuthMiddleware.
func MessageRateLimitMiddleware(limiter Limiter, l *logger.Logger) gin.HandlerFunc {
	if limiter == nil {
		return passThrough
	}
	return rateLimit(limiter.AllowMessage, userKey, "message rate limit exceeded", l)
}

func rateLimit(check limitCheck, keyOf func(*gin.Context) string, message string, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyOf(c)
		if key == "" {
			c.Next()
			return
		}

		result, err := check(c.Request.Context(), key)
		if err != nil {
			// Fail open when Redis is unavailable.
			if l != nil {
				l.WarnCtx(c.Request.Context(), "rate limit check failed", zap.Error(err))
			}
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

func userKey(c *gin.Context) string {
	userID, _ := services.UserIDFromContext(c.Request.Context())
	return userID
}

func passThrough(c *gin.Context) {
	c.Next()
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
