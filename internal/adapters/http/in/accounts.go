package in

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/holdline/reserve-core/internal/ledger"
	"github.com/holdline/reserve-core/internal/platform/apperr"
	"github.com/holdline/reserve-core/internal/platform/httpx"
)

// AccountHandler exposes read-only visibility into the fixed ledger
// account topology, for operators inspecting resource conservation
// rather than for any checkout-path consumer.
type AccountHandler struct {
	Accounting *ledger.ResourceAccounting
}

// BalanceResponse is the public shape of a single account's balance
// snapshot.
type BalanceResponse struct {
	Code           uint16 `json:"code"`
	DebitsPosted   int64  `json:"debits_posted"`
	CreditsPosted  int64  `json:"credits_posted"`
	DebitsPending  int64  `json:"debits_pending"`
	CreditsPending int64  `json:"credits_pending"`
	Available      int64  `json:"available"`
}

// GetAccountBalance handles GET /internal/accounts/{code}/balance: the
// operator-facing way to watch a budget/spent pair (restart counter
// included) without a direct line into the ledger client.
func (h *AccountHandler) GetAccountBalance(c *fiber.Ctx) error {
	ctx := c.UserContext()

	code, err := strconv.ParseUint(c.Params("code"), 10, 16)
	if err != nil {
		return httpx.WithError(c, apperr.ValidationError{Code: "invalid_account_code", Message: "account code must be a uint16"})
	}

	lookup, err := h.Accounting.LookupAccountBalance(ctx, uint16(code))
	if err != nil {
		return httpx.WithError(c, apperr.InternalServerError{Code: "account_lookup_failed", Message: "could not look up account", Err: err})
	}

	if !lookup.Found {
		return httpx.WithError(c, apperr.EntityNotFoundError{Code: "account_not_found", Message: "no such account in the ledger topology"})
	}

	return httpx.OK(c, BalanceResponse{
		Code:           uint16(code),
		DebitsPosted:   lookup.Balance.DebitsPosted,
		CreditsPosted:  lookup.Balance.CreditsPosted,
		DebitsPending:  lookup.Balance.DebitsPending,
		CreditsPending: lookup.Balance.CreditsPending,
		Available:      lookup.Balance.AvailableCredits(),
	})
}
