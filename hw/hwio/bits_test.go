package hwio

import (
	"errors"
	"testing"

	"bitbang/hw/endian"
)

func TestValueFacade(t *testing.T) {
	for _, mode := range allModes {
		order := endian.New(mode)

		v16 := order.FromNetwork16(0x1234)
		if got, err := GetBitfield(order, v16, 8, 15); err != nil || got != 0x12 {
			t.Errorf("%s: GetBitfield(0x1234, 8, 15) = %#x, %v, want 0x12", mode, got, err)
		}

		var v32 uint32
		if err := SetBitfield(order, &v32, 28, 31, 0xA); err != nil {
			t.Fatal(err)
		}
		if got := order.ToNetwork32(v32); got != 0xA000_0000 {
			t.Errorf("%s: SetBitfield(28, 31, 0xa) canonical = %#x, want 0xa0000000", mode, got)
		}

		v8 := uint8(0x81)
		if err := SetBitfield(order, &v8, 1, 2, 4); !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("%s: SetBitfield(1, 2, 4) error = %v, want ErrValueOutOfRange", mode, err)
		}
		if err := SetBitfield(order, &v8, 3, 8, 1); !errors.Is(err, ErrInvalidBitRange) {
			t.Errorf("%s: SetBitfield(3, 8) error = %v, want ErrInvalidBitRange", mode, err)
		}
		if v8 != 0x81 {
			t.Errorf("%s: failed SetBitfield modified value: %#x", mode, v8)
		}
	}
}

func TestBitHelpers(t *testing.T) {
	v := uint16(0x8001)
	if !GetBit(v, 0) || !GetBit(v, 15) || GetBit(v, 7) {
		t.Errorf("GetBit(%#x) wrong", v)
	}
	if GetBiti(v, 15) != 1 || GetBiti(v, 14) != 0 {
		t.Errorf("GetBiti(%#x) wrong", v)
	}

	SetBit(&v, 4)
	if v != 0x8011 {
		t.Errorf("SetBit(4) = %#x, want 0x8011", v)
	}
	ClearBit(&v, 15)
	if v != 0x0011 {
		t.Errorf("ClearBit(15) = %#x, want 0x11", v)
	}
	FlipBit(&v, 0)
	FlipBit(&v, 1)
	if v != 0x0012 {
		t.Errorf("FlipBit(0), FlipBit(1) = %#x, want 0x12", v)
	}

	w := uint32(0xFFFF_FFFF)
	ClearBits(&w, 0x0F0F_0000)
	if w != 0xF0F0_FFFF {
		t.Errorf("ClearBits = %#x, want 0xf0f0ffff", w)
	}
}
