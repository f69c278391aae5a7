package stm

// initialSetCapacity mirrors the reference implementation's lazily-sized,
// small fixed capacity hint for the read/write sets — most transactions
// touch a handful of cells, so a small initial map avoids the general-case
// growth cost without committing to an exact bound.
const initialSetCapacity = 5

type txMode uint8

const (
	modeRead txMode = iota
	modeWrite
)

// Txn is a single transaction's context: its mode, the epoch it started at,
// and — for write transactions — the read and write sets accumulated as the
// thunk runs. It is the Go-idiomatic stand-in for what other STM designs
// keep as implicit thread-local state: since Go has no implicit
// goroutine-local storage, a Txn is instead created fresh by ReadTx/WriteTx
// and threaded explicitly through every Cell.Get/Set call.
//
// A Txn is only ever touched by the goroutine running the transaction; it
// must never be retained or used after the ReadTx/WriteTx call that created
// it returns.
type Txn struct {
	mgr        *Manager
	mode       txMode
	startEpoch uint64

	readSet  map[cellHandle]struct{} // write mode only
	writeSet map[cellHandle]any      // write mode only
}

func (tx *Txn) noteRead(h cellHandle) {
	if tx.readSet == nil {
		tx.readSet = make(map[cellHandle]struct{}, initialSetCapacity)
	}
	tx.readSet[h] = struct{}{}
}

// validate reports whether every cell this transaction read or wrote is
// still at or before startEpoch, i.e. untouched by any commit since the
// transaction began. Must be called with the manager's fallbackLock held.
func (tx *Txn) validate() bool {
	for h := range tx.readSet {
		if h.currentEpoch() > tx.startEpoch {
			return false
		}
	}
	for h := range tx.writeSet {
		if h.currentEpoch() > tx.startEpoch {
			return false
		}
	}
	return true
}

// publish commits every pending write at commitEpoch. Must be called with
// the manager's fallbackLock held.
func (tx *Txn) publish(commitEpoch uint64) {
	for h, pending := range tx.writeSet {
		h.commit(commitEpoch, pending)
	}
}

// reset clears the transaction's state so that, whatever path the driver
// took to get here, the Txn leaves no trace once ReadTx/WriteTx returns.
func (tx *Txn) reset() {
	tx.mgr = nil
	tx.readSet = nil
	tx.writeSet = nil
}
