// Package endian decides how multi-byte register values are converted to and
// from network (big-endian) byte order, which is the order bit numbers are
// always expressed against.
package endian

import (
	"math/bits"
	"sync"
	"unsafe"

	"bitbang/log"
)

var hostBigEndian = sync.OnceValue(func() bool {
	endian := [2]uint8{0, 1}
	big := *(*uint16)(unsafe.Pointer(&endian[0])) == 1
	log.ModEndian.DebugZ("probed host byte order").Bool("big", big).End()
	return big
})

// HostIsBigEndian reports whether the host stores multi-byte scalars most
// significant byte first. The probe runs once per process.
func HostIsBigEndian() bool {
	return hostBigEndian()
}

// Policy converts between host and network byte order according to a Mode
// fixed at construction. The zero Policy is HostNative.
type Policy struct {
	mode Mode
}

// New returns the policy for mode m. Unknown modes fall back to HostNative.
func New(m Mode) Policy {
	if m > ForcedLittle {
		m = HostNative
	}
	return Policy{mode: m}
}

func (p Policy) Mode() Mode { return p.mode }

// IsBigEndian reports the effective byte order.
func (p Policy) IsBigEndian() bool {
	switch p.mode {
	case ForcedBig:
		return true
	case ForcedLittle:
		return false
	}
	return HostIsBigEndian()
}

// Swaps reports whether conversions to network order reverse bytes.
func (p Policy) Swaps() bool {
	switch p.mode {
	case ForcedBig:
		return false
	case ForcedLittle:
		return true
	}
	return !HostIsBigEndian()
}

func (p Policy) ToNetwork16(v uint16) uint16 {
	if p.Swaps() {
		return bits.ReverseBytes16(v)
	}
	return v
}

func (p Policy) FromNetwork16(v uint16) uint16 {
	if p.Swaps() {
		return bits.ReverseBytes16(v)
	}
	return v
}

func (p Policy) ToNetwork32(v uint32) uint32 {
	if p.Swaps() {
		return bits.ReverseBytes32(v)
	}
	return v
}

func (p Policy) FromNetwork32(v uint32) uint32 {
	if p.Swaps() {
		return bits.ReverseBytes32(v)
	}
	return v
}

func (p Policy) String() string {
	order := "little"
	if p.IsBigEndian() {
		order = "big"
	}
	return p.mode.String() + " (" + order + "-endian)"
}
