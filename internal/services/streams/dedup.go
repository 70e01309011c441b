package streams

import (
	"github.com/anvh2/market-bias/internal/constants"
)

// dedupSet remembers recent trade ids per (exchange, coin), bounded to
// 10k entries with a tail-retain trim.
type dedupSet struct {
	seen  map[string]struct{}
	queue []string
}

func newDedupSet() *dedupSet {
	return &dedupSet{
		seen:  make(map[string]struct{}),
		queue: make([]string, 0, constants.DedupRetain),
	}
}

// Check records the id and reports whether it was already seen.
func (d *dedupSet) Check(id string) bool {
	if id == "" {
		return false
	}

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.seen[id] = struct{}{}
	d.queue = append(d.queue, id)

	if len(d.queue) > constants.DedupCap {
		drop := d.queue[:len(d.queue)-constants.DedupRetain]
		for _, old := range drop {
			delete(d.seen, old)
		}
		d.queue = append([]string(nil), d.queue[len(d.queue)-constants.DedupRetain:]...)
	}

	return false
}

func (d *dedupSet) Len() int {
	return len(d.seen)
}
