package stm

import "errors"

// Sentinel errors for the programmer-error panics Get, Set, ReadTx and
// WriteTx raise on contract violations. Callers that recover from a panic
// originating in this package can distinguish them with errors.Is.
var (
	// ErrOutsideTransaction is panicked by Get/Set when called with a Txn
	// that isn't currently active (nil, or already cleaned up by its
	// driver call).
	ErrOutsideTransaction = errors.New("stm: cell accessed outside an active transaction")

	// ErrReadOnlyTransaction is panicked by Set when called inside a read
	// transaction.
	ErrReadOnlyTransaction = errors.New("stm: set called in a read-only transaction")

	// ErrNestedTransaction is panicked by ReadTx/WriteTx when the calling
	// goroutine already has a transaction of its own active. Nested/recursive
	// transactions are not supported.
	ErrNestedTransaction = errors.New("stm: transaction already active on this goroutine")
)

// abortSignal is the internal control-flow signal a stale Get raises to
// unwind a partially executed thunk. It is unexported so that user code can
// neither construct nor intentionally catch it; the driver's recover is the
// only place that ever observes one.
type abortSignal struct{}
