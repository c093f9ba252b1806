package in

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/holdline/reserve-core/internal/adapters/mockpay"
	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/ledger"
	"github.com/holdline/reserve-core/internal/orders"
	"github.com/holdline/reserve-core/internal/platform/httpx"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/platform/mongoaudit"
	"github.com/holdline/reserve-core/internal/session"
)

// Routes bundles every collaborator the HTTP layer needs to build the
// fiber.App and register routes, mirroring the teacher's
// bootstrap/http/routes.go wiring point.
type Routes struct {
	Checkout       *checkout.UseCase
	Orders         orders.Store
	Audit          *mongoaudit.Store
	Sessions       session.Store
	RateLimiter    *session.RateLimiter
	Provider       *mockpay.Provider
	Accounting     *ledger.ResourceAccounting
	Logger         mlog.Logger
	SweepGrace     time.Duration
	SweepLimit     int
	AdminBasicAuth httpx.BasicAuthFunc
}

// NewApp builds a fiber.App with the full middleware chain and route
// table.
func (r *Routes) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(httpx.WithCORS())
	app.Use(httpx.WithCorrelationID())
	app.Use(httpx.WithLogging(r.Logger))

	checkoutHandler := &CheckoutHandler{Checkout: r.Checkout, RateLimiter: r.RateLimiter}
	orderHandler := &OrderHandler{Orders: r.Orders, Audit: r.Audit}
	webhookHandler := &WebhookHandler{Checkout: r.Checkout}
	mockHandler := &MockPayHandler{Sessions: r.Sessions, Provider: r.Provider, Logger: r.Logger}
	sweepHandler := &SweepHandler{Checkout: r.Checkout, Grace: r.SweepGrace, Limit: r.SweepLimit}
	accountHandler := &AccountHandler{Accounting: r.Accounting}

	app.Get("/health", Health)
	app.Get("/version", GetVersion)

	app.Post("/checkout", httpx.WithBody(new(CheckoutRequest), checkoutHandler.Checkout))
	app.Get("/orders/:id", orderHandler.GetOrder)
	app.Get("/orders/:id/audit", orderHandler.GetOrderAudit)

	app.Post("/payments/webhook", httpx.WithBody(new(WebhookRequest), webhookHandler.Webhook))
	app.Get("/payments/mock/:intent_id", mockHandler.Redirect)

	if r.AdminBasicAuth != nil {
		app.Post("/internal/sweep", httpx.WithBasicAuth(r.AdminBasicAuth, "reserve-core admin"), sweepHandler.TriggerSweep)
		app.Get("/internal/accounts/:code/balance", httpx.WithBasicAuth(r.AdminBasicAuth, "reserve-core admin"), accountHandler.GetAccountBalance)
	}

	return app
}
