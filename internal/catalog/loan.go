package catalog

import (
	"sync/atomic"
	"time"
)

// Toggle flips the loan state of e. Lending stamps the loan time, returning clears it.
func Toggle(e Entry, now time.Time) Entry {
	if e.Available() {
		e.Status = StatusBorrowed
		t := now
		e.DataEmprestimo = &t
		return e
	}
	e.Status = StatusAvailable
	e.DataEmprestimo = nil
	return e
}

// ActionLabel is the verb for the next transition of e.
func ActionLabel(e Entry) string {
	if e.Available() {
		return "Emprestar"
	}
	return "Devolver"
}

// Generation hands out increasing tickets so that only the newest load
// applies its result.
type Generation struct {
	n atomic.Uint64
}

// Next issues a ticket superseding all earlier ones.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current returns the latest ticket issued.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// IsCurrent reports whether ticket is still the latest.
func (g *Generation) IsCurrent(ticket uint64) bool {
	return g.n.Load() == ticket
}

// Observe records a ticket issued elsewhere (for example by a browser),
// keeping the largest. It returns false when ticket is older than one
// already seen.
func (g *Generation) Observe(ticket uint64) bool {
	for {
		cur := g.n.Load()
		if ticket < cur {
			return false
		}
		if g.n.CompareAndSwap(cur, ticket) {
			return true
		}
	}
}
