package in

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/httpx"
)

// SweepHandler exposes an operator escape hatch to force an
// out-of-cadence timeout sweep, matching the teacher's habit of keeping
// a small set of basic-auth-protected operational routes (spec.md §12).
type SweepHandler struct {
	Checkout *checkout.UseCase
	Grace    time.Duration
	Limit    int
}

// SweepResponse reports how many orders the triggered sweep moved to
// TIMEOUT.
type SweepResponse struct {
	Swept int `json:"swept"`
}

// TriggerSweep handles POST /internal/sweep.
func (h *SweepHandler) TriggerSweep(c *fiber.Ctx) error {
	ctx := c.UserContext()

	swept, err := h.Checkout.TimeoutSweep(ctx, h.Grace, h.Limit)
	if err != nil {
		return httpx.WithError(c, apperr.InternalServerError{Code: "sweep_failed", Message: "timeout sweep failed", Err: err})
	}

	return httpx.OK(c, SweepResponse{Swept: swept})
}
