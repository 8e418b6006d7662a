// Package apperr defines the error taxonomy surfaced by the API.
// Every error a handler returns to a client carries one of the closed
// kinds below; anything else collapses to a generic internal error.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Kind string

const (
	Unauthenticated     Kind = "unauthenticated"
	Forbidden           Kind = "forbidden"
	ValidationError     Kind = "validation_error"
	NotFound            Kind = "not_found"
	UpstreamUnavailable Kind = "upstream_unavailable"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an internal cause that is logged but never serialized.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// StatusCode maps the kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case Unauthenticated:
		return fiber.StatusUnauthorized
	case Forbidden:
		return fiber.StatusForbidden
	case ValidationError:
		return fiber.StatusBadRequest
	case NotFound:
		return fiber.StatusNotFound
	case UpstreamUnavailable:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// KindOf extracts the kind from an error chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrorHandler is the app-wide fiber error handler. Taxonomy errors
// map to their status with only the public message serialized;
// everything else collapses to a generic 500 after being logged.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *Error
		if errors.As(err, &e) {
			return c.Status(e.StatusCode()).JSON(fiber.Map{"error": e.Message})
		}
		if fe, ok := err.(*fiber.Error); ok && fe.Code != fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		log.Error("unhandled error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
