// Package hwio provides access to registers and bitfields of 8, 16 and 32-bit
// register spaces, backed by plain memory or by a memory-mapped device.
//
// Bit numbers are always given against the canonical (network, big-endian)
// representation of a register: a bitfield constant such as 8:15 designates
// the same bits whatever the host byte order or the configured endian.Mode.
package hwio

import (
	"unsafe"

	"bitbang/hw/endian"
)

// Word is the set of register types.
type Word interface {
	~uint8 | ~uint16 | ~uint32
}

// Width returns the number of bits in T.
func Width[T Word]() uint {
	var v T
	return uint(unsafe.Sizeof(v)) * 8
}

// MaxFieldValue returns the largest value a bitfield spanning bits lo to hi
// (inclusive) can hold. It requires lo <= hi and hi < 64; the result is
// meaningless otherwise.
func MaxFieldValue(lo, hi uint) uint64 {
	return 1<<(hi-lo+1) - 1
}

func mask[T Word](lo, hi uint) T {
	return T(MaxFieldValue(lo, hi)) << lo
}

// Bitfield extracts and inserts bitfields in registers of type T.
type Bitfield[T Word] struct {
	order endian.Policy
}

func NewBitfield[T Word](order endian.Policy) Bitfield[T] {
	return Bitfield[T]{order: order}
}

func (Bitfield[T]) Width() uint { return Width[T]() }

func (b Bitfield[T]) Policy() endian.Policy { return b.order }

// Load converts a raw register value to its canonical representation.
func (b Bitfield[T]) Load(raw T) T {
	switch unsafe.Sizeof(raw) {
	case 2:
		return T(b.order.ToNetwork16(uint16(raw)))
	case 4:
		return T(b.order.ToNetwork32(uint32(raw)))
	}
	return raw
}

// Store converts a canonical value to the raw register representation.
func (b Bitfield[T]) Store(val T) T {
	switch unsafe.Sizeof(val) {
	case 2:
		return T(b.order.FromNetwork16(uint16(val)))
	case 4:
		return T(b.order.FromNetwork32(uint32(val)))
	}
	return val
}

// CheckRange validates lo and hi against the register width.
func (b Bitfield[T]) CheckRange(lo, hi uint) error {
	if lo > hi || hi >= Width[T]() {
		return rangeError("CheckRange", lo, hi, Width[T]())
	}
	return nil
}

// Extract returns the value of bits lo to hi of the raw register value v.
func (b Bitfield[T]) Extract(v T, lo, hi uint) (T, error) {
	if lo > hi || hi >= Width[T]() {
		return 0, rangeError("Extract", lo, hi, Width[T]())
	}
	return b.extract(v, lo, hi), nil
}

// Insert writes val into bits lo to hi of the raw register value *v, leaving
// other bits untouched. On error *v is not modified.
func (b Bitfield[T]) Insert(v *T, lo, hi uint, val T) error {
	if lo > hi || hi >= Width[T]() {
		return rangeError("Insert", lo, hi, Width[T]())
	}
	if max := MaxFieldValue(lo, hi); uint64(val) > max {
		return valueError("Insert", uint64(val), max)
	}
	*v = b.insert(*v, lo, hi, val)
	return nil
}

func (b Bitfield[T]) extract(v T, lo, hi uint) T {
	return (b.Load(v) & mask[T](lo, hi)) >> lo
}

func (b Bitfield[T]) insert(v T, lo, hi uint, val T) T {
	m := mask[T](lo, hi)
	return b.Store(b.Load(v)&^m | (val<<lo)&m)
}
