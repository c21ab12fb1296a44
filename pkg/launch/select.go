package launch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/launchkit/pkg/intent"
)

const selectLogPrefix = "launch:select"

// Result is the outcome of one launch request.
type Result struct {
	// Channel is the name of the strategy that ran, empty when none could.
	Channel  string
	Err      error
	Duration time.Duration
}

// OK reports whether the target was launched.
func (r Result) OK() bool { return r.Err == nil }

// Select returns the first strategy whose CanRun reports true. Strategies
// are queried in order, one at a time.
func Select(ctx context.Context, strategies ...Strategy) (Strategy, error) {
	for _, s := range strategies {
		if s.CanRun(ctx) {
			slog.Debug(fmt.Sprintf("%s - selected %s", selectLogPrefix, s.Name()))
			return s, nil
		}
		slog.Debug(fmt.Sprintf("%s - %s unavailable", selectLogPrefix, s.Name()))
	}
	return nil, ErrNoChannel
}

// Launch selects the first runnable strategy and launches through it.
func Launch(ctx context.Context, args intent.Args, strategies ...Strategy) Result {
	start := time.Now()

	s, err := Select(ctx, strategies...)
	if err != nil {
		return Result{Err: err, Duration: time.Since(start)}
	}

	err = s.TryLaunch(ctx, args)
	res := Result{Channel: s.Name(), Err: err, Duration: time.Since(start)}
	if err != nil {
		slog.Error(fmt.Sprintf("%s - launch via %s failed: %v", selectLogPrefix, s.Name(), err))
	} else {
		slog.Info(fmt.Sprintf("%s - launched via %s in %s", selectLogPrefix, s.Name(), res.Duration))
	}
	return res
}
