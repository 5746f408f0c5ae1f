package ledger

import (
	"sort"
	"sync"
)

// lockTable hands out one mutex per account so that movements touching
// the same account serialize while unrelated accounts never contend.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{
		locks: make(map[string]*sync.Mutex),
	}
}

func (t *lockTable) get(accountNumber string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[accountNumber]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[accountNumber] = lock
	}
	return lock
}

// acquire locks the given accounts in ascending account-number order,
// regardless of the order passed in. Opposing transfers between the same
// pair therefore always take the locks in the same direction and cannot
// wait on each other in a cycle. The returned func releases the locks.
func (t *lockTable) acquire(accountNumbers ...string) func() {
	ordered := make([]string, len(accountNumbers))
	copy(ordered, accountNumbers)
	sort.Strings(ordered)

	locks := make([]*sync.Mutex, 0, len(ordered))
	for i, number := range ordered {
		if i > 0 && number == ordered[i-1] {
			continue
		}
		lock := t.get(number)
		lock.Lock()
		locks = append(locks, lock)
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
