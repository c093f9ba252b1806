package httpx

import (
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// WithCorrelationID stamps every request and response with an
// X-Correlation-ID, generating one when the caller didn't supply it.
func WithCorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cid := c.Get(headerCorrelationID)
		if cid == "" {
			cid = uuid.New().String()
		}

		c.Set(headerCorrelationID, cid)
		c.Request().Header.Set(headerCorrelationID, cid)

		return c.Next()
	}
}

// WithLogging attaches a request-scoped logger (carrying the correlation
// id) to the request context and emits an access-log line per request.
// Requests to /health are passed through without either.
func WithLogging(base mlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		cid := c.Get(headerCorrelationID)

		logger := base.WithFields(headerCorrelationID, cid)
		c.SetUserContext(mlog.ContextWithLogger(c.UserContext(), logger))

		err := c.Next()

		logger.Infof("%s %s %d %s", c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))

		return err
	}
}

const (
	defaultAccessControlAllowOrigin  = "*"
	defaultAccessControlAllowMethods = "POST, GET, OPTIONS, PUT, DELETE"
	defaultAccessControlAllowHeaders = "Accept, Content-Type, Content-Length, X-Correlation-ID, Authorization"
)

// WithCORS enables permissive CORS suitable for a browser-driven checkout
// flow fronted by a separate static frontend.
func WithCORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: defaultAccessControlAllowOrigin,
		AllowMethods: defaultAccessControlAllowMethods,
		AllowHeaders: defaultAccessControlAllowHeaders,
	})
}

// BasicAuthFunc reports whether the given credentials are valid.
type BasicAuthFunc func(username, password string) bool

// FixedBasicAuthFunc builds a BasicAuthFunc from a single "user:pass" pair,
// comparing in constant time.
func FixedBasicAuthFunc(username, password string) BasicAuthFunc {
	return func(user, pass string) bool {
		return subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1 &&
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
	}
}

// WithBasicAuth gates a route behind HTTP basic auth. Used only for the
// operator-facing routes: the sweep trigger and the account balance view.
func WithBasicAuth(f BasicAuthFunc, realm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return unauthorizedBasic(c, realm)
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Basic" {
			return unauthorizedBasic(c, realm)
		}

		cred, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return unauthorizedBasic(c, realm)
		}

		pair := strings.SplitN(string(cred), ":", 2)
		if len(pair) != 2 || !f(pair[0], pair[1]) {
			return unauthorizedBasic(c, realm)
		}

		return c.Next()
	}
}

func unauthorizedBasic(c *fiber.Ctx, realm string) error {
	c.Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	return Unauthorized(c, "bad_credentials", "invalid operator credentials")
}

// GetRemoteAddress returns the client IP, preferring X-Forwarded-For /
// X-Real-Ip set by an upstream proxy over the raw socket address.
func GetRemoteAddress(c *fiber.Ctx) string {
	if realIP := c.Get(headerRealIP); realIP != "" {
		return realIP
	}

	if forwardedFor := c.Get(headerForwardedFor); forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}

	return c.IP()
}

// ParseIntParam parses a path/query parameter as an int, returning def
// when absent or malformed.
func ParseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}

	return def
}
