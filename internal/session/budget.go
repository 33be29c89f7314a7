package session

import "sync/atomic"

// Budget is the shared per-session notification ceiling. Acquire reserves
// one dispatch slot with check-and-increment semantics so the limit holds
// even if sources are ever processed in parallel; a failed dispatch hands
// its slot back with Release, since transport failures do not count
// against the budget.
type Budget struct {
	limit int64
	used  atomic.Int64
}

// NewBudget creates a budget allowing limit dispatches; -1 means
// unlimited.
func NewBudget(limit int) *Budget {
	return &Budget{limit: int64(limit)}
}

func (b *Budget) Acquire() bool {
	if b.limit < 0 {
		b.used.Add(1)
		return true
	}
	for {
		cur := b.used.Load()
		if cur >= b.limit {
			return false
		}
		if b.used.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (b *Budget) Release() {
	b.used.Add(-1)
}

func (b *Budget) Used() int {
	return int(b.used.Load())
}
