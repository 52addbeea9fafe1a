// Package flowtable implements the concurrent bidirectional flow
// aggregator: direction-canonical lookup, counter accumulation, and a
// bounded top-N view ordered by a selectable sort key.
package flowtable

import (
	"sort"
	"sync"

	"github.com/flowtopdev/nettop/pkg/dissect"
)

// SortKey selects which projection of a flow's counters orders the top-N
// view.
type SortKey int

const (
	// SortByBytes orders by max(rx_bytes, tx_bytes).
	SortByBytes SortKey = iota
	// SortByPackets orders by max(rx_packets, tx_packets).
	SortByPackets
)

// TopN is the fixed size of the materialized top-talkers view.
const TopN = 10

// Stats holds the monotonically non-decreasing counters for one flow.
type Stats struct {
	RxBytes   uint64
	RxPackets uint64
	TxBytes   uint64
	TxPackets uint64
}

func (s Stats) bytesProjection() uint64 {
	if s.RxBytes > s.TxBytes {
		return s.RxBytes
	}
	return s.TxBytes
}

func (s Stats) packetsProjection() uint64 {
	if s.RxPackets > s.TxPackets {
		return s.RxPackets
	}
	return s.TxPackets
}

func (s Stats) projection(key SortKey) uint64 {
	if key == SortByPackets {
		return s.packetsProjection()
	}
	return s.bytesProjection()
}

// Entry is one (key, stats) pair as returned by Drain.
type Entry struct {
	Key   dissect.Key
	Stats Stats
}

// Table is the thread-safe flow aggregator. Every public method acquires
// the internal lock for the duration of the call. The zero value is not
// usable; construct with New.
type Table struct {
	mu      sync.Mutex
	entries map[dissect.Key]*Stats
	topN    []Entry
	sortKey SortKey
}

// New constructs an empty Table ordered by sortKey.
func New(sortKey SortKey) *Table {
	return &Table{
		entries: make(map[dissect.Key]*Stats),
		sortKey: sortKey,
	}
}

// SetSortKey changes the ordering used by future calls to Update's top-N
// maintenance. Changing it mid-run does not reorder the existing top-N
// view until the next Update.
func (t *Table) SetSortKey(key SortKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sortKey = key
}

// Update integrates one packet into the table: it looks the key up in its
// stored (tx) orientation, then in the direction-swapped (rx) orientation,
// and only creates a new entry if neither is found.
func (t *Table) Update(key dissect.Key, wireLength uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.entries[key]; ok {
		s.TxBytes += uint64(wireLength)
		s.TxPackets++
		t.refreshTopLocked(key, *s)
		return
	}

	rev := key.Swap()
	if s, ok := t.entries[rev]; ok {
		s.RxBytes += uint64(wireLength)
		s.RxPackets++
		t.refreshTopLocked(rev, *s)
		return
	}

	s := &Stats{TxBytes: uint64(wireLength), TxPackets: 1}
	t.entries[key] = s
	t.refreshTopLocked(key, *s)
}

// refreshTopLocked maintains the top-N view: replace the entry in place if
// present, else prepend; re-sort ascending by the configured sort-key
// projection with a stable sort (insertion order breaks ties); then trim
// the front (least busy) while over TopN.
func (t *Table) refreshTopLocked(key dissect.Key, stats Stats) {
	found := false
	for i := range t.topN {
		if t.topN[i].Key == key {
			t.topN[i].Stats = stats
			found = true
			break
		}
	}
	if !found {
		t.topN = append([]Entry{{Key: key, Stats: stats}}, t.topN...)
	}

	sortKey := t.sortKey
	sort.SliceStable(t.topN, func(i, j int) bool {
		return t.topN[i].Stats.projection(sortKey) < t.topN[j].Stats.projection(sortKey)
	})

	for len(t.topN) > TopN {
		t.topN = t.topN[1:]
	}
}

// Drain returns the current top-N view, ascending by the configured sort
// key (least-busy first), and atomically resets all table state -- both
// the backing map and the top-N view -- so the next sample interval
// starts from zero.
func (t *Table) Drain() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.topN
	t.topN = nil
	t.entries = make(map[dissect.Key]*Stats)
	return out
}
