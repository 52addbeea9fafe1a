// Package monitor owns the capture handle and the flow table, and drives
// the blocking producer loop that feeds captured frames into the table.
package monitor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/flowtopdev/nettop/internal/printer"
	"github.com/flowtopdev/nettop/pkg/dissect"
	"github.com/flowtopdev/nettop/pkg/flowtable"
)

// Monitor owns a live capture handle and a flow table, and drives the
// blocking producer loop on whichever goroutine calls Start. All mutation
// of shared state happens through Table.Update, which is its own lock --
// Monitor itself holds no lock beyond the sync.Once guarding Stop.
type Monitor struct {
	iface  string
	runID  uuid.UUID
	source captureSource
	table  *flowtable.Table
	clock  clockWrapper

	stopOnce sync.Once
}

// New opens a live capture on iface (promiscuous, 1000ms timeout,
// unlimited snaplen) and returns a Monitor backed by a fresh flow table
// ordered by sortKey.
func New(iface string, sortKey flowtable.SortKey) (*Monitor, error) {
	source, err := openLive(iface)
	if err != nil {
		return nil, err
	}
	return newMonitor(iface, source, flowtable.New(sortKey)), nil
}

// newMonitor is the shared constructor used by New and by tests, which
// inject a fake captureSource in place of a live pcap handle.
func newMonitor(iface string, source captureSource, table *flowtable.Table) *Monitor {
	return &Monitor{
		iface:  iface,
		runID:  uuid.New(),
		source: source,
		table:  table,
		clock:  &realClock{},
	}
}

// Start runs the capture loop until the source reports an unrecoverable
// error or ctx is canceled. Each delivered frame is dissected; a
// successful dissection updates the flow table; a Skip is silently
// dropped as a per-frame failure. Start returns nil on a clean
// ctx-driven stop, and a non-nil error for any other capture failure.
func (m *Monitor) Start(ctx context.Context) error {
	printer.Stderr.Debugf("starting capture run %s on %s at %s\n", m.runID, m.iface, m.clock.Now())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		data, caplen, err := m.source.ReadPacketData()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if ctx.Err() != nil {
				// The handle was closed as part of a requested Stop; that's a
				// clean shutdown, not a capture failure.
				return nil
			}
			return errors.Wrapf(err, "capture loop terminated on %s", m.iface)
		}

		res, ok := dissect.Dissect(data, caplen)
		if !ok {
			continue
		}
		m.table.Update(res.Key, res.WireLength)
	}
}

// Stop requests the capture loop to exit and releases the handle. Stop is
// idempotent: calling it more than once, or concurrently with Start's own
// exit, is safe.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.source.Close()
	})
}

// SetSortKey changes the ordering the flow table applies from its next
// Update on; the current top-N view is not re-sorted by this call.
func (m *Monitor) SetSortKey(key flowtable.SortKey) {
	m.table.SetSortKey(key)
}

// Snapshot delegates to the flow table's Drain: it returns the current
// top-N view and atomically resets all counters for the next sample
// interval.
func (m *Monitor) Snapshot() []flowtable.Entry {
	return m.table.Drain()
}
