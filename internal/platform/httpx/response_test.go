package httpx

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdline/reserve-core/internal/platform/apperr"
)

func newTestApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return WithError(c, err)
	})

	return app
}

// TestWithErrorDispatchesEveryTypedError is responsible to test that
// each typed business error maps to its documented HTTP status
func TestWithErrorDispatchesEveryTypedError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperr.ErrOrderNotFound, fiber.StatusNotFound},
		{"validation", apperr.ValidationError{Code: "bad_input", Message: "bad"}, fiber.StatusBadRequest},
		{"conflict", apperr.ErrSoldOut, fiber.StatusConflict},
		{"unauthorized", apperr.ErrBadSignature, fiber.StatusUnauthorized},
		{"rate limited", apperr.RateLimitedError{Code: "rate_limited", Message: "slow down"}, fiber.StatusTooManyRequests},
		{"unprocessable", apperr.ErrLedgerTransient, fiber.StatusServiceUnavailable},
		{"internal", apperr.InternalServerError{Code: "boom", Message: "boom"}, fiber.StatusInternalServerError},
		{"unknown", errors.New("mystery"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(tc.err)

			req := httptest.NewRequest(fiber.MethodGet, "/", nil)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

// TestWithErrorWrapsUnwrappableTypedError is responsible to test that a
// typed error wrapped with errors.Join still dispatches correctly via
// errors.As
func TestWithErrorWrapsUnwrappableTypedError(t *testing.T) {
	wrapped := errors.Join(apperr.ErrOrderNotFound)

	app := newTestApp(wrapped)

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
