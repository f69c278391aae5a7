// Package stm implements software transactional memory: a way to group
// reads and writes of shared Cells into atomic, isolated transactions
// without hand-written locking.
//
// Wrap each piece of shared state in a Cell, create a Manager, and access
// the cells only from inside ReadTx/WriteTx:
//
//	mgr := stm.NewManager()
//	balance := stm.NewCell(100)
//
//	mgr.WriteTx(func(tx *stm.Txn) {
//		cur := balance.Get(tx)
//		balance.Set(tx, cur-1)
//	})
//
// Write transactions run optimistically: the thunk executes without
// holding any lock, and the driver validates on commit that nothing the
// transaction read or wrote has changed since it started. A transaction
// that loses that race is retried exactly once, under an exclusive lock
// that guarantees success. Read transactions take no lock on their first
// attempt; they validate each cell as it's read and, if a stale value was
// observed, retry once under a shared lock, which holds off writers'
// commits until the retry finishes.
package stm
