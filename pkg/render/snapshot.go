package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/flowtopdev/nettop/pkg/flowtable"
)

// SnapshotWriter writes one plain-text file per sample tick under a fixed
// output directory: "<outdir>/out-<N>.txt", N a monotonically increasing
// counter starting at 0. Not safe for concurrent use -- the consumer
// goroutine is the only caller.
type SnapshotWriter struct {
	dir string
	n   int
}

// NewSnapshotWriter validates that dir exists and is a directory.
func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("snapshot path %s is not a directory", dir)
	}
	return &SnapshotWriter{dir: dir}, nil
}

// Write renders entries the same way the live table does and writes them
// to the next numbered file.
func (w *SnapshotWriter) Write(entries []flowtable.Entry, intervalSeconds int) error {
	path := filepath.Join(w.dir, fmt.Sprintf("out-%d.txt", w.n))
	content := strings.Join(Rows(entries, intervalSeconds), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "writing snapshot %s", path)
	}
	w.n++
	return nil
}
