// Package bank is a small demo domain built on top of stm, used by both the
// bank-transfer test and the cmd/stm-bench binary so the transfer logic
// itself is written once and exercised from two places.
package bank

import (
	"fmt"

	"github.com/cellstm/stm"
)

// Ledger holds a fixed set of named accounts, each backed by its own Cell,
// all sharing one Manager.
type Ledger struct {
	mgr      *stm.Manager
	names    []string
	accounts map[string]*stm.Cell[int64]
}

// ErrInsufficientFunds is returned by Transfer when the source account's
// balance, as seen inside the transaction, can't cover the amount.
var ErrInsufficientFunds = fmt.Errorf("bank: insufficient funds")

// NewLedger creates a Ledger with the given accounts, each starting at
// openingBalance.
func NewLedger(mgr *stm.Manager, names []string, openingBalance int64) *Ledger {
	accounts := make(map[string]*stm.Cell[int64], len(names))
	for _, name := range names {
		accounts[name] = stm.NewCell(openingBalance)
	}
	return &Ledger{mgr: mgr, names: append([]string(nil), names...), accounts: accounts}
}

// Names returns the ledger's account names, in the order given to NewLedger.
func (l *Ledger) Names() []string {
	return append([]string(nil), l.names...)
}

// Balance reads a single account's balance in its own read transaction.
func (l *Ledger) Balance(name string) int64 {
	var bal int64
	l.mgr.ReadTx(func(tx *stm.Txn) {
		bal = l.accounts[name].Get(tx)
	})
	return bal
}

// Total sums every account's balance inside a single read transaction, so
// the result reflects one consistent snapshot rather than racing reads.
func (l *Ledger) Total() int64 {
	var total int64
	l.mgr.ReadTx(func(tx *stm.Txn) {
		total = 0
		for _, name := range l.names {
			total += l.accounts[name].Get(tx)
		}
	})
	return total
}

// Transfer atomically moves amount from one account to another. It returns
// ErrInsufficientFunds, without applying any change, if the source account
// can't cover the amount as of the moment the transaction reads it; the
// transaction's own retry behavior means that check is always against a
// fresh, validated snapshot, not a stale one.
func (l *Ledger) Transfer(from, to string, amount int64) error {
	var insufficient bool
	l.mgr.WriteTx(func(tx *stm.Txn) {
		insufficient = false
		fromCell := l.accounts[from]
		toCell := l.accounts[to]

		fromBal := fromCell.Get(tx)
		if fromBal < amount {
			insufficient = true
			return
		}
		toBal := toCell.Get(tx)
		fromCell.Set(tx, fromBal-amount)
		toCell.Set(tx, toBal+amount)
	})
	if insufficient {
		return ErrInsufficientFunds
	}
	return nil
}
