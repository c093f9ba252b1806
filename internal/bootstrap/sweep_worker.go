package bootstrap

import (
	"context"
	"time"

	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// SweepWorker periodically runs the Checkout orchestrator's timeout
// sweep in the background, independent of the admin-triggered one-shot
// endpoint (spec.md §4.5/§9).
type SweepWorker struct {
	Checkout *checkout.UseCase
	Interval time.Duration
	Grace    time.Duration
	Limit    int
	Logger   mlog.Logger
}

// Run ticks every Interval until the process exits, voiding and
// transitioning orders whose hold has expired past Grace.
func (w *SweepWorker) Run(l *Launcher) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for range ticker.C {
		swept, err := w.Checkout.TimeoutSweep(context.Background(), w.Grace, w.Limit)
		if err != nil {
			w.Logger.Errorf("timeout sweep: %v", err)
			continue
		}

		if swept > 0 {
			w.Logger.Infof("timeout sweep: %d order(s) moved to TIMEOUT", swept)
		}
	}

	return nil
}
