package launch

import (
	"errors"
	"fmt"

	"github.com/morezero/launchkit/pkg/intent"
)

var (
	// ErrUnsupported is returned when an operation is invoked on a channel
	// that does not implement it.
	ErrUnsupported = errors.New("operation not supported by this channel")
	// ErrNoChannel is returned when no strategy can run.
	ErrNoChannel = errors.New("no launch channel available")
)

// ContractError marks a programming error: an extra type without a shell
// flag, an unserializable value, or an unsupported operation. It is never
// retried across filters.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation in %s: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

// IsContract reports whether err is or wraps a ContractError.
func IsContract(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// encodingContract wraps encoder failures that come from the extra-type
// contract; other errors pass through unchanged.
func encodingContract(op string, err error) error {
	if errors.Is(err, intent.ErrUnknownExtraType) || errors.Is(err, intent.ErrInvalidExtraValue) {
		return &ContractError{Op: op, Err: err}
	}
	return err
}
