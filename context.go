package stm

import (
	"sync"
	"sync/atomic"
)

// Manager owns one transactional memory space: a monotonic epoch counter,
// the fallback lock that serializes commits and contended retries, and
// observability counters. Multiple independent Managers may coexist; cells
// used inside one transaction should all belong to the same Manager (the
// package does not enforce this).
type Manager struct {
	epoch        atomic.Uint64
	fallbackLock sync.RWMutex

	readRetries  atomic.Uint64
	writeRetries atomic.Uint64
}

// NewManager returns a new Manager with a fresh epoch of 0.
func NewManager() *Manager {
	return &Manager{}
}

// ReadRetries reports how many times a read transaction on this Manager has
// fallen back to a retry under the shared lock. Observability only.
func (m *Manager) ReadRetries() uint64 {
	return m.readRetries.Load()
}

// WriteRetries reports how many times a write transaction on this Manager
// has fallen back to a guaranteed-success retry under the exclusive lock.
// Observability only.
func (m *Manager) WriteRetries() uint64 {
	return m.writeRetries.Load()
}

// runSpeculative runs thunk against tx, reporting whether a stale Get
// aborted it. Any panic other than the internal abortSignal propagates
// unchanged — runSpeculative never swallows a caller's own panic.
func runSpeculative(tx *Txn, thunk func(tx *Txn)) (aborted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortSignal); ok {
				aborted = true
				return
			}
			panic(r)
		}
	}()
	thunk(tx)
	return false
}

// ReadTx runs thunk as a read-only transaction against m.
//
// thunk may call Get on any Cell belonging to m; each Get is checked against
// the transaction's start epoch as it happens, so a value written after the
// transaction began triggers an abort. On abort the transaction is retried
// exactly once, under m's fallback lock held in shared mode, which is
// guaranteed to succeed because no writer can be mid-commit while any
// shared holder exists.
//
// Calling ReadTx or WriteTx again, on any Manager, from inside a running
// thunk is a programmer error and panics with ErrNestedTransaction.
func (m *Manager) ReadTx(thunk func(tx *Txn)) {
	id := enterTxn()
	defer exitTxn(id)

	tx := &Txn{mgr: m, mode: modeRead}
	defer tx.reset()

	tx.startEpoch = m.epoch.Load()
	if !runSpeculative(tx, thunk) {
		return
	}

	m.readRetries.Add(1)
	m.fallbackLock.RLock()
	defer m.fallbackLock.RUnlock()
	tx.startEpoch = m.epoch.Load()
	// A second abort here would mean a writer committed while we hold the
	// shared lock, which fallbackLock's exclusive-during-commit discipline
	// rules out. We deliberately don't loop on it (see DESIGN.md).
	runSpeculative(tx, thunk)
}

// WriteTx runs thunk as a read-write transaction against m.
//
// thunk runs once optimistically, without any lock: Get validates each read
// against the transaction's start epoch and Set only buffers pending
// values. If that run didn't abort and produced no writes, WriteTx returns
// immediately — nothing to validate or commit. Otherwise m's fallback lock
// is acquired exclusively and the read and write sets are validated against
// the start epoch; on success the pending writes are published at a fresh
// epoch. If the optimistic run aborted, or validation failed, thunk is run
// exactly once more under the exclusive lock — guaranteed to succeed, since
// no other writer can be committing concurrently — and its writes are
// published unconditionally.
//
// Calling ReadTx or WriteTx again, on any Manager, from inside a running
// thunk is a programmer error and panics with ErrNestedTransaction.
func (m *Manager) WriteTx(thunk func(tx *Txn)) {
	id := enterTxn()
	defer exitTxn(id)

	tx := &Txn{mgr: m, mode: modeWrite}
	defer tx.reset()

	tx.startEpoch = m.epoch.Load()
	if !runSpeculative(tx, thunk) {
		if len(tx.writeSet) == 0 {
			return
		}

		committed := false
		m.fallbackLock.Lock()
		if tx.validate() {
			commitEpoch := m.epoch.Load() + 1
			tx.publish(commitEpoch)
			m.epoch.Store(commitEpoch)
			committed = true
		}
		m.fallbackLock.Unlock()
		if committed {
			return
		}
	}

	m.writeRetries.Add(1)
	m.fallbackLock.Lock()
	defer m.fallbackLock.Unlock()

	tx.startEpoch = m.epoch.Load()
	tx.readSet = nil
	tx.writeSet = nil
	runSpeculative(tx, thunk)

	if len(tx.writeSet) > 0 {
		commitEpoch := tx.startEpoch + 1
		tx.publish(commitEpoch)
		m.epoch.Store(commitEpoch)
	}
}
