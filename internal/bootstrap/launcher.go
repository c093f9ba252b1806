// Package bootstrap wires the five core components together into a
// runnable process: connections, use cases, the HTTP server, the
// background sweep, and the mock-provider webhook consumer, adapted from
// the teacher's common.App/common.Launcher + internal/service pattern.
package bootstrap

import (
	"sync"

	"github.com/holdline/reserve-core/internal/platform/mlog"
)

// App is a long-running process component started by a Launcher.
type App interface {
	Run(l *Launcher) error
}

// LauncherOption configures a Launcher at construction time.
type LauncherOption func(l *Launcher)

// WithLogger attaches the process logger to the launcher.
func WithLogger(logger mlog.Logger) LauncherOption {
	return func(l *Launcher) { l.Logger = logger }
}

// RunApp registers an App to start under the given name.
func RunApp(name string, app App) LauncherOption {
	return func(l *Launcher) { l.Add(name, app) }
}

// Launcher starts every registered App in its own goroutine and blocks
// until all of them return.
type Launcher struct {
	Logger mlog.Logger
	apps   map[string]App
	wg     *sync.WaitGroup
}

// Add registers an App under name.
func (l *Launcher) Add(name string, a App) *Launcher {
	l.apps[name] = a
	return l
}

// Run starts every registered app and waits for all of them to finish.
// An app that returns (cleanly or with an error) does not stop the
// others — each component's own shutdown is independent, matching the
// teacher's Launcher.Run.
func (l *Launcher) Run() {
	l.wg.Add(len(l.apps))

	l.Logger.Infof("starting %d app(s)", len(l.apps))

	for name, app := range l.apps {
		go func(name string, app App) {
			defer l.wg.Done()

			l.Logger.Infof("launcher: app (%s) starting", name)

			if err := app.Run(l); err != nil {
				l.Logger.Errorf("launcher: app (%s) error: %v", name, err)
			}

			l.Logger.Infof("launcher: app (%s) finished", name)
		}(name, app)
	}

	l.wg.Wait()

	l.Logger.Info("launcher: terminated")
}

// NewLauncher builds a Launcher with no apps registered yet.
func NewLauncher(opts ...LauncherOption) *Launcher {
	l := &Launcher{
		apps: make(map[string]App),
		wg:   new(sync.WaitGroup),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}
