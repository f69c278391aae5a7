package stm

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// activeTxns tracks which goroutines currently have a ReadTx/WriteTx call in
// progress. Go has no implicit thread-local storage, so this is the
// package's stand-in for the reference design's single thread-local
// TransactionContext slot: nested entry is forbidden regardless of which
// Manager the outer and inner calls target, exactly as a single per-thread
// slot would forbid it.
//
// Parsing the goroutine ID out of a runtime.Stack dump is not an officially
// supported Go API, but it is a long-standing, narrowly-scoped idiom for
// exactly this kind of ambient per-goroutine bookkeeping, and it's the only
// way to implement the check the reference design requires without
// threading an explicit "already in a transaction" flag through every call
// in the program.
var activeTxns sync.Map // goroutineID uint64 -> struct{}

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		// Should be unreachable given runtime.Stack's documented format;
		// fall back to a value that can never collide with a real ID
		// rather than silently disabling the nested-entry check.
		return 0
	}
	return id
}

// enterTxn marks the calling goroutine as running a transaction, panicking
// with ErrNestedTransaction if it already is.
func enterTxn() uint64 {
	id := goroutineID()
	if _, loaded := activeTxns.LoadOrStore(id, struct{}{}); loaded {
		panic(ErrNestedTransaction)
	}
	return id
}

func exitTxn(id uint64) {
	activeTxns.Delete(id)
}
