package bank

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellstm/stm"
)

func TestTransferMovesBalance(t *testing.T) {
	mgr := stm.NewManager()
	ledger := NewLedger(mgr, []string{"alice", "bob"}, 100)

	require.NoError(t, ledger.Transfer("alice", "bob", 30))

	assert.EqualValues(t, 70, ledger.Balance("alice"))
	assert.EqualValues(t, 130, ledger.Balance("bob"))
}

func TestTransferRejectsInsufficientFunds(t *testing.T) {
	mgr := stm.NewManager()
	ledger := NewLedger(mgr, []string{"alice", "bob"}, 10)

	err := ledger.Transfer("alice", "bob", 100)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.EqualValues(t, 10, ledger.Balance("alice"))
	assert.EqualValues(t, 10, ledger.Balance("bob"))
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	const opening = 500
	mgr := stm.NewManager()
	ledger := NewLedger(mgr, names, opening)

	const goroutines = 8
	const transfersPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(seed int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(int64(seed)))
			for i := 0; i < transfersPerGoroutine; i++ {
				from := names[rnd.Intn(len(names))]
				to := names[rnd.Intn(len(names))]
				if from == to {
					continue
				}
				_ = ledger.Transfer(from, to, 1)
			}
		}(g)
	}
	wg.Wait()

	assert.EqualValues(t, int64(len(names))*opening, ledger.Total())
	for _, name := range names {
		assert.GreaterOrEqual(t, ledger.Balance(name), int64(0))
	}
}
