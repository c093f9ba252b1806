package bootstrap

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// Server runs the HTTP surface (checkout, orders, webhook, mock
// provider, admin sweep trigger).
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        mlog.Logger
}

// NewServer builds a Server around an already-configured fiber.App.
func NewServer(app *fiber.App, serverAddress string, logger mlog.Logger) *Server {
	return &Server{app: app, serverAddress: serverAddress, logger: logger}
}

// Run listens on ServerAddress until the process is terminated.
func (s *Server) Run(l *Launcher) error {
	if err := s.app.Listen(s.serverAddress); err != nil {
		return fmt.Errorf("run http server: %w", err)
	}

	return nil
}
