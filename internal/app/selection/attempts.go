package selection

import "pickit/internal/domain/loot"

// AttemptBook counts pickup attempts per object handle. A count lives as long
// as its object stays in the snapshot.
type AttemptBook struct {
	counts map[loot.Handle]int
}

func NewAttemptBook() *AttemptBook {
	return &AttemptBook{counts: map[loot.Handle]int{}}
}

func (b *AttemptBook) Count(h loot.Handle) int {
	return b.counts[h]
}

func (b *AttemptBook) Increment(h loot.Handle) int {
	b.counts[h]++
	return b.counts[h]
}

// Sync forgets handles that left the snapshot.
func (b *AttemptBook) Sync(s loot.Snapshot) {
	if len(b.counts) == 0 {
		return
	}
	present := make(map[loot.Handle]struct{}, len(s.Labels))
	for _, l := range s.Labels {
		present[l.Handle] = struct{}{}
	}
	for h := range b.counts {
		if _, ok := present[h]; !ok {
			delete(b.counts, h)
		}
	}
}

func (b *AttemptBook) Len() int { return len(b.counts) }
