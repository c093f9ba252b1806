// Command app is the reservation-and-settlement core's single process
// entrypoint: it loads configuration, wires components A-E, and runs the
// HTTP server, the timeout sweep, and the mock-provider webhook consumer
// side by side until terminated.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/holdline/reserve-core/internal/bootstrap"
	"github.com/holdline/reserve-core/internal/config"
	"github.com/holdline/reserve-core/internal/platform/mlog"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := mlog.NewZapLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	defer func() { _ = logger.Sync() }()

	service, err := bootstrap.NewService(context.Background(), cfg, logger)
	if err != nil {
		logger.Errorf("failed to initialize reservation core: %v", err)
		os.Exit(1)
	}

	service.Run()
}
