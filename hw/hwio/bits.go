package hwio

import "bitbang/hw/endian"

// GetBitfield returns bits lo to hi of v, a register value obtained by other
// means than a Space.
func GetBitfield[T Word](order endian.Policy, v T, lo, hi uint) (T, error) {
	return NewBitfield[T](order).Extract(v, lo, hi)
}

// SetBitfield writes val into bits lo to hi of *v. On error *v is not
// modified.
func SetBitfield[T Word](order endian.Policy, v *T, lo, hi uint, val T) error {
	return NewBitfield[T](order).Insert(v, lo, hi, val)
}

// The following single-bit helpers work on native values, they apply no byte
// order conversion and do no bound checking on n.

func GetBit[T Word](v T, n uint) bool {
	return GetBiti(v, n) != 0
}

func GetBiti[T Word](v T, n uint) T {
	return v >> n & 0x01
}

func SetBit[T Word](v *T, n uint) {
	*v |= 1 << n
}

func ClearBit[T Word](v *T, n uint) {
	*v &^= 1 << n
}

func FlipBit[T Word](v *T, n uint) {
	*v ^= 1 << n
}

func ClearBits[T Word](v *T, mask T) {
	*v &^= mask
}
