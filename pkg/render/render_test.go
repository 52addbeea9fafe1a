package render

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtopdev/nettop/pkg/dissect"
	"github.com/flowtopdev/nettop/pkg/flowtable"
)

func entry(srcPort, dstPort int, rxB, txB uint64) flowtable.Entry {
	return flowtable.Entry{
		Key: dissect.Key{
			SrcAddr:  dissect.AddrFromIP(net.IPv4(10, 0, 0, 1)),
			SrcPort:  uint16(srcPort),
			DstAddr:  dissect.AddrFromIP(net.IPv4(10, 0, 0, 2)),
			DstPort:  uint16(dstPort),
			Protocol: dissect.ProtocolTCP,
		},
		Stats: flowtable.Stats{RxBytes: rxB, RxPackets: 1, TxBytes: txB, TxPackets: 1},
	}
}

func TestRows_HeaderPlusOneLinePerEntry(t *testing.T) {
	entries := []flowtable.Entry{entry(1, 2, 10, 20), entry(3, 4, 100, 200)}
	rows := Rows(entries, 1)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "PROTO")
}

func TestRows_BusiestFirst(t *testing.T) {
	// Drain order is ascending (least busy first); Rows should reverse it.
	entries := []flowtable.Entry{entry(1, 2, 10, 10), entry(3, 4, 999, 999)}
	rows := Rows(entries, 1)
	assert.Contains(t, rows[1], "10.0.0.1:3")
	assert.Contains(t, rows[2], "10.0.0.1:1")
}

func TestEndpoint_BracketsIPv6(t *testing.T) {
	addr := dissect.AddrFromIP(net.ParseIP("2001:db8::1"))
	assert.Equal(t, "[2001:db8::1]:80", endpoint(addr, 80))
}

func TestEndpoint_NoBracketsForIPv4(t *testing.T) {
	addr := dissect.AddrFromIP(net.IPv4(10, 0, 0, 1))
	assert.Equal(t, "10.0.0.1:80", endpoint(addr, 80))
}

func TestSnapshotWriter_WritesMonotonicallyNumberedFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewSnapshotWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.Write([]flowtable.Entry{entry(1, 2, 10, 20)}, 1))
	require.NoError(t, w.Write(nil, 1))

	_, err = os.Stat(filepath.Join(dir, "out-0.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "out-1.txt"))
	assert.NoError(t, err)
}

func TestNewSnapshotWriter_ErrorsOnMissingDir(t *testing.T) {
	_, err := NewSnapshotWriter(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
