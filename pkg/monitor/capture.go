package monitor

import (
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"
)

// readTimeout is the kernel read timeout: it guarantees the capture loop
// returns periodically even under zero traffic, which is what bounds
// shutdown latency.
const readTimeout = 1000 * time.Millisecond

const (
	promiscuous      = true
	unlimitedSnaplen = 65535
)

// captureSource is the opaque frame producer: a blocking per-frame reader
// plus a way to break it. Production code satisfies it with *pcap.Handle;
// tests inject a fake that replays a fixed set of frames. It delivers raw
// (bytes, caplen) rather than a decoded packet, since the dissector owns
// the byte walk itself.
type captureSource interface {
	// ReadPacketData blocks until a frame is available, the read timeout
	// elapses (returning pcap.NextErrorTimeoutExpired, which callers must
	// treat as "no frame this tick, keep looping"), or the handle is
	// closed from another goroutine (returning an error).
	ReadPacketData() (data []byte, caplen int, err error)
	Close()
}

type pcapSource struct {
	handle *pcap.Handle
}

// openLive opens a live capture on iface in promiscuous mode with the
// spec-mandated 1000ms timeout and unlimited snaplen.
func openLive(iface string) (captureSource, error) {
	handle, err := pcap.OpenLive(iface, int32(unlimitedSnaplen), promiscuous, readTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture on %s", iface)
	}
	return &pcapSource{handle: handle}, nil
}

func (p *pcapSource) ReadPacketData() ([]byte, int, error) {
	data, ci, err := p.handle.ReadPacketData()
	if err != nil {
		return nil, 0, err
	}
	return data, ci.CaptureLength, nil
}

func (p *pcapSource) Close() {
	p.handle.Close()
}

// isTimeout reports whether err is the kernel read timeout expiring with
// no frame delivered -- a normal, recoverable condition the capture loop
// must not treat as an unrecoverable capture error.
func isTimeout(err error) bool {
	return errors.Cause(err) == pcap.NextErrorTimeoutExpired
}
