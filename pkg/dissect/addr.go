package dissect

import "net"

// Addr is a fixed-size, allocation-free IP address. Keying flows by
// string-typed addresses would make hashing and equality allocate and
// compare byte-by-byte on every packet; storing a fixed array avoids both.
// We use the 16-byte IPv4-in-IPv6 form net.IP already uses
// (10 zero octets, 0xff, 0xff, then the 4 IPv4 octets) so Family is always
// recoverable from the bytes themselves rather than carried as a separate
// field that could disagree with them.
type Addr [16]byte

var v4Prefix = [12]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}

// addrFromSlice copies a 4- or 16-byte address slice into the fixed
// representation. The caller guarantees len(b) is 4 or 16.
func addrFromSlice(b []byte) Addr {
	var a Addr
	if len(b) == 4 {
		copy(a[:10], v4Prefix[:10])
		a[10], a[11] = 0xff, 0xff
		copy(a[12:], b)
		return a
	}
	copy(a[:], b)
	return a
}

// AddrFromIP builds an Addr from a net.IP, accepting either 4- or 16-byte
// form. Exported for callers outside this package (the flowtable and render
// tests) that already hold a net.IP and need the comparable form.
func AddrFromIP(ip net.IP) Addr {
	if v4 := ip.To4(); v4 != nil {
		return addrFromSlice(v4)
	}
	return addrFromSlice(ip.To16())
}

// Family reports which IP version this address represents, derived from
// its bytes rather than stored independently.
func (a Addr) Family() Family {
	for i := 0; i < 10; i++ {
		if a[i] != 0 {
			return IPv6
		}
	}
	if a[10] == 0xff && a[11] == 0xff {
		return IPv4
	}
	return IPv6
}

// String renders the address in its natural presentation form: dotted-quad
// for IPv4, canonical colon-hex for IPv6.
func (a Addr) String() string {
	if a.Family() == IPv4 {
		return net.IP(a[12:16]).String()
	}
	return net.IP(a[:]).String()
}
