package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind classifies relay errors into the four outcomes the driver
// distinguishes.
type Kind int

const (
	// MalformedEvent: log does not match the Deposit signature or lacks a
	// transaction hash. Never enters the state machine, never retried.
	MalformedEvent Kind = iota
	// TransportTimeout: an RPC call exceeded its configured timeout.
	TransportTimeout
	// TransportFailure: RPC-level rejection or connectivity failure.
	TransportFailure
	// RetryBudgetExhausted: the event was restarted more times than the
	// configured policy allows.
	RetryBudgetExhausted
)

func (k Kind) String() string {
	switch k {
	case MalformedEvent:
		return "malformed event"
	case TransportTimeout:
		return "transport timeout"
	case TransportFailure:
		return "transport failure"
	case RetryBudgetExhausted:
		return "retry budget exhausted"
	}
	return "unknown"
}

// Error is a classified relay error tied to the main-chain transaction
// whose relay produced it.
type Error struct {
	Kind       Kind
	MainTxHash common.Hash
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s - %s", e.MainTxHash.Hex(), e.Kind)
	}
	return fmt.Sprintf("%s - %s: %s", e.MainTxHash.Hex(), e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether restarting the state machine from scratch can
// recover from this error.
func (e *Error) Retryable() bool {
	return e.Kind == TransportTimeout || e.Kind == TransportFailure
}

// IsRetryable reports whether err is a transport-level relay error that the
// driver should recover by restarting the task.
func IsRetryable(err error) bool {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Retryable()
	}
	return false
}

// ErrKind extracts the relay error kind; false if err is not a relay error.
func ErrKind(err error) (Kind, bool) {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Kind, true
	}
	return 0, false
}

// transportError classifies a failed RPC call: a blown deadline is a
// timeout, everything else a transport failure.
func transportError(mainTxHash common.Hash, err error) *Error {
	kind := TransportFailure
	if errors.Is(err, context.DeadlineExceeded) {
		kind = TransportTimeout
	}
	return &Error{Kind: kind, MainTxHash: mainTxHash, Err: err}
}

func malformedError(mainTxHash common.Hash, err error) *Error {
	return &Error{Kind: MalformedEvent, MainTxHash: mainTxHash, Err: err}
}

func budgetError(mainTxHash common.Hash, err error) *Error {
	return &Error{Kind: RetryBudgetExhausted, MainTxHash: mainTxHash, Err: err}
}
