package httpx

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/holdline/reserve-core/internal/platform/apperr"
)

// ResponseError is the uniform error body sent to clients.
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r ResponseError) Error() string { return r.Message }

// OK writes a 200 JSON response.
func OK(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusOK).JSON(body)
}

// Created writes a 201 JSON response.
func Created(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusCreated).JSON(body)
}

// NoContent writes an empty 204 response.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func respond(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ResponseError{Code: code, Message: message})
}

func NotFound(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusNotFound, code, message)
}

func Conflict(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusConflict, code, message)
}

func BadRequest(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusBadRequest, code, message)
}

func UnprocessableEntity(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusUnprocessableEntity, code, message)
}

func Unauthorized(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusUnauthorized, code, message)
}

func TooManyRequests(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusTooManyRequests, code, message)
}

func ServiceUnavailable(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusServiceUnavailable, code, message)
}

func InternalServerError(c *fiber.Ctx, code, message string) error {
	return respond(c, fiber.StatusInternalServerError, code, message)
}

// WithError dispatches a typed apperr to the matching HTTP response, the
// single point in the codebase where error taxonomy becomes status code.
func WithError(c *fiber.Ctx, err error) error {
	var (
		notFound     apperr.EntityNotFoundError
		validation   apperr.ValidationError
		conflict     apperr.EntityConflictError
		unauthorized apperr.UnauthorizedError
		rateLimited  apperr.RateLimitedError
		unprocessable apperr.UnprocessableOperationError
		internal     apperr.InternalServerError
	)

	switch {
	case errors.As(err, &notFound):
		return NotFound(c, notFound.Code, notFound.Error())
	case errors.As(err, &validation):
		return BadRequest(c, validation.Code, validation.Message)
	case errors.As(err, &conflict):
		return Conflict(c, conflict.Code, conflict.Message)
	case errors.As(err, &unauthorized):
		return Unauthorized(c, unauthorized.Code, unauthorized.Message)
	case errors.As(err, &rateLimited):
		return TooManyRequests(c, rateLimited.Code, rateLimited.Message)
	case errors.As(err, &unprocessable):
		return ServiceUnavailable(c, unprocessable.Code, unprocessable.Message)
	case errors.As(err, &internal):
		return InternalServerError(c, internal.Code, internal.Message)
	default:
		return InternalServerError(c, "internal_error", "an unexpected error occurred")
	}
}
