package stm

import "sync/atomic"

// cellHandle is the type-erased view of a Cell[T] the driver validates and
// commits through. A single transaction's write set may hold cells of
// different T, so the driver can't work in terms of Cell[T] directly; it
// dispatches through this interface instead, which is ordinary Go method
// dispatch standing in for the per-T vtable a non-generic implementation
// would need to hand-roll.
type cellHandle interface {
	currentEpoch() uint64
	commit(epoch uint64, pending any)
}

// box gives every Cell[T] a single, consistent concrete type to hand to
// atomic.Value regardless of what T is (atomic.Value panics if successive
// Store calls don't agree on a concrete type, which a bare T would risk for
// interface T).
type box[T any] struct{ v T }

// Cell is a single transactionally managed variable of scalar type T: a
// value plus the write-epoch it was last committed at. T is meant for
// scalar copy types — integers, floats, bools, pointers — of word size or
// less; see SPEC_FULL.md §6 for why the type parameter isn't constrained to
// exactly that set.
//
// A Cell must be created with NewCell; the zero value is not usable, since
// an un-Stored atomic.Value has no concrete type to assert against in Get.
type Cell[T any] struct {
	value      atomic.Value
	writeEpoch atomic.Uint64
}

// NewCell returns a new Cell holding initial, with its write-epoch set to 0.
func NewCell[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.value.Store(box[T]{initial})
	return c
}

// Get reads the cell's value as seen by tx.
//
// In a read transaction, the value is returned as long as the cell's
// write-epoch is no newer than tx's start epoch; otherwise the transaction
// aborts and is retried by the driver. In a write transaction, a value
// already pending in tx's write set is returned first (read-your-own-writes);
// otherwise the cell is added to tx's read set and the same staleness check
// applies.
//
// Get panics with ErrOutsideTransaction if tx is nil or has already been
// cleaned up by its driver call.
func (c *Cell[T]) Get(tx *Txn) T {
	if tx == nil || tx.mgr == nil {
		panic(ErrOutsideTransaction)
	}

	if tx.mode == modeWrite {
		if pending, ok := tx.writeSet[c]; ok {
			return pending.(T)
		}
		tx.noteRead(c)
	}

	val := c.value.Load().(box[T]).v
	if c.writeEpoch.Load() > tx.startEpoch {
		panic(abortSignal{})
	}
	return val
}

// Set records a pending value for the cell in tx's write set. It does not
// touch the cell's committed value or write-epoch; that happens only when
// the driver commits tx. A later Set on the same cell within the same
// transaction overwrites the earlier pending value.
//
// Set panics with ErrOutsideTransaction if tx is nil or has already been
// cleaned up, and with ErrReadOnlyTransaction if tx is a read transaction.
func (c *Cell[T]) Set(tx *Txn, v T) {
	if tx == nil || tx.mgr == nil {
		panic(ErrOutsideTransaction)
	}
	if tx.mode != modeWrite {
		panic(ErrReadOnlyTransaction)
	}
	if tx.writeSet == nil {
		tx.writeSet = make(map[cellHandle]any, initialSetCapacity)
	}
	tx.writeSet[c] = v
}

func (c *Cell[T]) currentEpoch() uint64 {
	return c.writeEpoch.Load()
}

// commit publishes a pending write: the epoch is stamped before the value,
// so that a reader who observes the new value (via the acquire-like load in
// Get) is guaranteed to also observe the new, or a later, epoch.
func (c *Cell[T]) commit(epoch uint64, pending any) {
	c.writeEpoch.Store(epoch)
	c.value.Store(box[T]{pending.(T)})
}
