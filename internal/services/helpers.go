package services

import (
	"context"
	"errors"

	"chapel-site/internal/events"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

// MaxFeedLimit caps every feed window request.
const MaxFeedLimit = 200

func IsNotFound(err error) bool {
	return errors.Is(err, chapel_errors.ErrNotFound)
}

// publish notifies subscribers. A failed publish never fails the write that
// already committed; it is logged and subscribers catch up on the next event.
func publish(ctx context.Context, bus events.Bus, log *logger.Logger, event events.Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, event); err != nil {
		log.WarnCtx(ctx, "event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("room_id", event.RoomID),
			zap.Error(err),
		)
	}
}

// offerLatest puts v on a one-slot channel, replacing a value the consumer
// has not taken yet. Only one goroutine may send on out.
func offerLatest[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

// drain discards wake-ups already queued so a burst costs one re-read.
func drain(ch <-chan events.Event) bool {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

func orNopLogger(l *logger.Logger) *logger.Logger {
	if l == nil {
		return logger.NewNop()
	}
	return l
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, chapel_errors.ErrInvalidInput):
		return 400
	case errors.Is(err, chapel_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, chapel_errors.ErrForbidden):
		return 403
	case errors.Is(err, chapel_errors.ErrNotFound):
		return 404
	case errors.Is(err, chapel_errors.ErrAlreadyExists), errors.Is(err, chapel_errors.ErrConflict):
		return 409
	case errors.Is(err, chapel_errors.ErrTooLarge):
		return 413
	case errors.Is(err, chapel_errors.ErrRateLimited):
		return 429
	case errors.Is(err, chapel_errors.ErrServiceUnavailable):
		return 503
	default:
		return 500
	}
}
