package launch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/launchkit/pkg/intent"
)

const iterativeLogPrefix = "launch:iterative"

// AttemptFunc performs one launch for a concrete, derived intent.
type AttemptFunc func(ctx context.Context, args intent.Args, in intent.Intent) error

// Iterative drives an AttemptFunc across the filter list.
type Iterative struct {
	// ExtraFlags are added to every derived intent.
	ExtraFlags intent.Flags
	Attempt    AttemptFunc
}

// Run tries each filter in order and stops at the first success. When every
// attempt fails it returns the error of the last one. An empty filter list
// makes no attempts and succeeds.
//
// A ContractError from an attempt ends the sequence immediately, since no
// other filter can fix it.
func (it Iterative) Run(ctx context.Context, args intent.Args) error {
	var latestErr error

	for i, f := range args.Filters {
		if err := ctx.Err(); err != nil {
			if latestErr != nil {
				return latestErr
			}
			return err
		}

		in := intent.Derive(args.Intent, f, it.ExtraFlags)
		err := it.attempt(ctx, args, in)
		if err == nil {
			slog.Debug(fmt.Sprintf("%s - filter %d/%d launched action=%s", iterativeLogPrefix, i+1, len(args.Filters), in.Action))
			return nil
		}
		if IsContract(err) {
			return err
		}

		slog.Warn(fmt.Sprintf("%s - error with alternative filter %d/%d: %v", iterativeLogPrefix, i+1, len(args.Filters), err))
		latestErr = err
	}

	return latestErr
}

// attempt runs one AttemptFunc call and turns a panic into an error.
func (it Iterative) attempt(ctx context.Context, args intent.Args, in intent.Intent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s - attempt panicked: %v", iterativeLogPrefix, r)
		}
	}()
	return it.Attempt(ctx, args, in)
}
