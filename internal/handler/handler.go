// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"strconv"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/services"
	"chapel-site/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		// Details stay in the log; ErrorHandler writes a generic envelope.
		_ = c.Error(err)
		c.Status(status)
		return
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), errorCode(status)))
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
}

// actorOf returns the authenticated actor; AuthMiddleware guarantees one.
func actorOf(c *gin.Context) (chat.Actor, bool) {
	actor, ok := services.ActorFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return chat.Actor{}, false
	}
	return actor, true
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUint64(value string) (uint64, error) {
	return strconv.ParseUint(value, 10, 64)
}

// pagination reads ?page= and ?limit=, defaulting to page 1.
func pagination(c *gin.Context) (int, int, bool) {
	page, err := parseInt(c.Query("page"))
	if err != nil {
		return 0, 0, false
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		return 0, 0, false
	}
	if page < 1 {
		page = 1
	}
	return page, limit, true
}
