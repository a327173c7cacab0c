// Package shutdown turns SIGINT/SIGTERM into context cancellation and runs
// the service's ordered teardown.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

// NotifyContext is cancelled on SIGINT or SIGTERM and logs which one
// arrived.
func NotifyContext(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			if log != nil {
				log.Info("Shutdown signal received", "signal", sig.String())
			}
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

// Step is one named stage of teardown: HTTP drain, poll tasks, clients.
type Step struct {
	Name string
	Fn   func(context.Context) error
}

// Run executes steps in order under a single deadline. A failed step is
// logged and the remaining steps still run. It returns the names of the
// steps that failed.
func Run(ctx context.Context, log *logger.Logger, timeout time.Duration, steps ...Step) []string {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var failed []string
	for _, s := range steps {
		if s.Fn == nil {
			continue
		}
		start := time.Now()
		if err := s.Fn(ctx); err != nil {
			failed = append(failed, s.Name)
			if log != nil {
				log.Warn("Shutdown step failed", "step", s.Name, "error", err)
			}
			continue
		}
		if log != nil {
			log.Debug("Shutdown step done", "step", s.Name, "elapsed", time.Since(start).String())
		}
	}
	return failed
}
