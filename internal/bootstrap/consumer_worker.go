package bootstrap

import (
	"context"

	"github.com/holdline/reserve-core/internal/adapters/mockpay"
)

// ConsumerWorker runs the mock-provider webhook consumer for the
// lifetime of the process.
type ConsumerWorker struct {
	Consumer *mockpay.Consumer
}

// Run drains the webhook queue until the process exits.
func (w *ConsumerWorker) Run(l *Launcher) error {
	return w.Consumer.Run(context.Background())
}
