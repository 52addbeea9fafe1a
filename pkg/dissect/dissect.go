package dissect

import (
	"encoding/binary"
)

const (
	etherHeaderLen = 14
	etherTypeIPv4  = 0x0800
	etherTypeIPv6  = 0x86DD

	ipv4BaseHeaderLen = 20
	ipv6HeaderLen     = 40

	portsLen = 4
)

// Key is the canonical identity of one unidirectional conversation
// endpoint pair. Two Keys are equal iff SrcAddr, SrcPort,
// DstAddr, DstPort and Protocol are all equal. There is no Family field:
// Addr.Family is always derivable from the address bytes, so carrying it
// separately would let a Key disagree with itself. Go's struct equality
// gives us exactly the required comparison for free, and Key is comparable
// so it can be used directly as a map key.
type Key struct {
	SrcAddr  Addr
	SrcPort  uint16
	DstAddr  Addr
	DstPort  uint16
	Protocol Protocol
}

// Swap returns the direction-reversed key used to test whether a packet is
// the return leg of an already-seen flow.
func (k Key) Swap() Key {
	k.SrcAddr, k.DstAddr = k.DstAddr, k.SrcAddr
	k.SrcPort, k.DstPort = k.DstPort, k.SrcPort
	return k
}

// Result is what a successful Dissect call produces: a flow identity and
// the IP-layer wire length to charge against it.
type Result struct {
	Key        Key
	WireLength uint16
}

// cursor walks a capture buffer, tracking how many octets have actually
// been delivered (caplen) versus how far we have read (pos). Every read is
// preceded by a need() check; a short capture turns into a Skip, never a
// panic and never an out-of-bounds read.
type cursor struct {
	buf    []byte
	pos    int
	caplen int
}

func (c *cursor) need(n int) bool {
	return c.pos+n <= c.caplen
}

func (c *cursor) advance(n int) {
	c.pos += n
}

func (c *cursor) slice(n int) []byte {
	return c.buf[c.pos : c.pos+n]
}

// Dissect walks one captured frame up to the transport layer and returns
// the flow it belongs to together with the IP-layer wire length, or ok=false
// (Skip) if the frame is truncated, carries an unrecognized EtherType, an
// unmapped transport protocol, or otherwise cannot be classified.
//
// Dissect is a pure function: it performs no I/O and holds no state across
// calls, so it is safe to call from any number of goroutines concurrently
// and is exhaustively testable with literal byte vectors.
func Dissect(frame []byte, caplen int) (Result, bool) {
	if caplen > len(frame) {
		caplen = len(frame)
	}
	c := &cursor{buf: frame, pos: 0, caplen: caplen}

	if !c.need(etherHeaderLen) {
		return Result{}, false
	}
	etherType := binary.BigEndian.Uint16(c.slice(etherHeaderLen)[12:14])
	c.advance(etherHeaderLen)

	switch etherType {
	case etherTypeIPv4:
		return dissectIPv4(c)
	case etherTypeIPv6:
		return dissectIPv6(c)
	default:
		return Result{}, false
	}
}

func dissectIPv4(c *cursor) (Result, bool) {
	if !c.need(ipv4BaseHeaderLen) {
		return Result{}, false
	}
	hdr := c.slice(ipv4BaseHeaderLen)

	ihl := int(hdr[0]&0x0F) * 4
	totalLength := binary.BigEndian.Uint16(hdr[2:4])
	protocolNumber := hdr[9]
	srcAddr := addrFromSlice(hdr[12:16])
	dstAddr := addrFromSlice(hdr[16:20])

	proto, ok := protocolForNumber(protocolNumber)
	if !ok {
		return Result{}, false
	}

	var srcPort, dstPort uint16
	if proto == ProtocolTCP || proto == ProtocolUDP {
		if ihl < ipv4BaseHeaderLen {
			return Result{}, false
		}
		if !c.need(ihl) {
			return Result{}, false
		}
		c.advance(ihl)
		if !c.need(portsLen) {
			return Result{}, false
		}
		ports := c.slice(portsLen)
		srcPort = binary.BigEndian.Uint16(ports[0:2])
		dstPort = binary.BigEndian.Uint16(ports[2:4])
	}

	return Result{
		Key: Key{
			SrcAddr:  srcAddr,
			SrcPort:  srcPort,
			DstAddr:  dstAddr,
			DstPort:  dstPort,
			Protocol: proto,
		},
		WireLength: totalLength,
	}, true
}

func dissectIPv6(c *cursor) (Result, bool) {
	if !c.need(ipv6HeaderLen) {
		return Result{}, false
	}
	hdr := c.slice(ipv6HeaderLen)

	payloadLength := binary.BigEndian.Uint16(hdr[4:6])
	nextHeader := hdr[6]
	srcAddr := addrFromSlice(hdr[8:24])
	dstAddr := addrFromSlice(hdr[24:40])

	proto, ok := protocolForNumber(nextHeader)
	if !ok {
		return Result{}, false
	}

	var srcPort, dstPort uint16
	if proto == ProtocolTCP || proto == ProtocolUDP {
		c.advance(ipv6HeaderLen)
		if !c.need(portsLen) {
			return Result{}, false
		}
		ports := c.slice(portsLen)
		srcPort = binary.BigEndian.Uint16(ports[0:2])
		dstPort = binary.BigEndian.Uint16(ports[2:4])
	}

	return Result{
		Key: Key{
			SrcAddr:  srcAddr,
			SrcPort:  srcPort,
			DstAddr:  dstAddr,
			DstPort:  dstPort,
			Protocol: proto,
		},
		WireLength: payloadLength + ipv6HeaderLen,
	}, true
}
