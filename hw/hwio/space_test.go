package hwio

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"bitbang/hw/endian"
)

func TestSpace8Bitfields(t *testing.T) {
	s := NewSpace("dev8", make([]uint8, 4), endian.New(endian.HostNative))
	regs := s.Checked()

	if err := regs.SetBitfield(0, 1, 2, 3); err != nil {
		t.Fatal(err)
	}
	if got, err := regs.Bitfield(0, 1, 2); err != nil || got != 3 {
		t.Errorf("Bitfield(0, 1, 2) = %d, %v, want 3", got, err)
	}
	if got, err := regs.Register(0); err != nil || got != 0b0000_0110 {
		t.Errorf("Register(0) = %#b, %v, want 0b110", got, err)
	}
}

func TestSpace16WholeRegister(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			s := NewSpace("dev16", make([]uint16, 4), endian.New(mode))
			regs := s.Checked()

			if err := regs.SetRegister(2, 0x00FF); err != nil {
				t.Fatal(err)
			}
			if got, _ := regs.Bitfield(2, 0, 7); got != 0xFF {
				t.Errorf("Bitfield(2, 0, 7) = %#x, want 0xff", got)
			}
			if got, _ := regs.Bitfield(2, 8, 15); got != 0x00 {
				t.Errorf("Bitfield(2, 8, 15) = %#x, want 0", got)
			}
			if got, _ := regs.Register(2); got != 0x00FF {
				t.Errorf("Register(2) = %#x, want 0xff", got)
			}

			if err := regs.SetRegister(0, 0x1234); err != nil {
				t.Fatal(err)
			}
			if got, _ := regs.Bitfield(0, 8, 15); got != 0x12 {
				t.Errorf("Bitfield(0, 8, 15) = %#x, want 0x12", got)
			}
		})
	}
}

func TestSpaceFullWidthBitfieldIsRegister(t *testing.T) {
	for _, mode := range allModes {
		order := endian.New(mode)

		a := NewSpace("a", make([]uint32, 1), order)
		b := NewSpace("b", make([]uint32, 1), order)

		a.Checked().SetRegister(0, 0xDEAD_BEEF)
		b.Checked().SetBitfield(0, 0, 31, 0xDEAD_BEEF)
		if a.regs[0] != b.regs[0] {
			t.Errorf("%s: SetRegister stored %#x, SetBitfield(0:31) stored %#x", mode, a.regs[0], b.regs[0])
		}
	}
}

func TestSpaceRegisterOutOfRange(t *testing.T) {
	buf := []uint16{0x1111, 0x2222, 0x3333, 0x4444}
	s := NewSpace("dev16", buf, endian.New(endian.ForcedBig))
	regs := s.Checked()

	got, err := regs.Register(4)
	if !errors.Is(err, ErrRegisterOutOfRange) {
		t.Errorf("Register(size) error = %v, want ErrRegisterOutOfRange", err)
	}
	if got != 0 {
		t.Errorf("Register(size) = %#x, want 0", got)
	}

	if err := regs.SetRegister(100, 0xFFFF); !errors.Is(err, ErrRegisterOutOfRange) {
		t.Errorf("SetRegister(100) error = %v, want ErrRegisterOutOfRange", err)
	}
	if _, err := regs.Bitfield(4, 0, 3); !errors.Is(err, ErrRegisterOutOfRange) {
		t.Errorf("Bitfield(4) error = %v, want ErrRegisterOutOfRange", err)
	}
	if err := regs.SetBit(5, 0, 1); !errors.Is(err, ErrRegisterOutOfRange) {
		t.Errorf("SetBit(5) error = %v, want ErrRegisterOutOfRange", err)
	}

	want := []uint16{0x1111, 0x2222, 0x3333, 0x4444}
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %#x, want %#x", i, buf[i], want[i])
		}
	}
}

func TestSpaceNoPartialWrite(t *testing.T) {
	buf := []uint8{0xA5, 0x5A}
	regs := NewSpace("dev8", buf, endian.New(endian.HostNative)).Checked()

	tests := []struct {
		name    string
		reg     uint
		lo, hi  uint
		val     uint8
		wantErr error
	}{
		{"bad range", 0, 5, 2, 1, ErrInvalidBitRange},
		{"high bit", 1, 4, 8, 1, ErrInvalidBitRange},
		{"value", 0, 0, 2, 8, ErrValueOutOfRange},
		{"single bit value", 1, 3, 3, 2, ErrValueOutOfRange},
		{"bad reg and range", 2, 5, 2, 1, ErrRegisterOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := regs.SetBitfield(tt.reg, tt.lo, tt.hi, tt.val)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetBitfield error = %v, want %v", err, tt.wantErr)
			}
			if buf[0] != 0xA5 || buf[1] != 0x5A {
				t.Errorf("failed SetBitfield modified registers: % x", buf)
			}
		})
	}
}

func TestSpaceStorageUnavailable(t *testing.T) {
	s := NewSpace[uint32]("nil", nil, endian.New(endian.HostNative))
	if s.Available() {
		t.Fatalf("space over nil buffer should be unavailable")
	}

	regs := s.Checked()
	if _, err := regs.Register(0); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Register error = %v, want ErrStorageUnavailable", err)
	}
	if err := regs.SetBitfield(0, 0, 1, 1); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("SetBitfield error = %v, want ErrStorageUnavailable", err)
	}

	// Closing a space makes it unavailable.
	s = NewSpace("closed", make([]uint32, 2), endian.New(endian.HostNative))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := s.Checked().Bit(1, 3); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Bit after Close error = %v, want ErrStorageUnavailable", err)
	}
}

func TestSpaceCloseReleasesOnce(t *testing.T) {
	calls := 0
	s := NewSpace("owned", make([]uint8, 1), endian.New(endian.HostNative))
	s.release = func() error {
		calls++
		return nil
	}

	s.Close()
	s.Close()
	if calls != 1 {
		t.Errorf("release called %d times, want 1", calls)
	}
}

func TestSpaceError(t *testing.T) {
	regs := NewSpace("uart", make([]uint16, 8), endian.New(endian.HostNative)).Checked()

	err := regs.SetBitfield(3, 0, 2, 9)
	var herr *Error
	if !errors.As(err, &herr) {
		t.Fatalf("error %v is not a *Error", err)
	}
	if herr.Op != "SetBitfield" || herr.Space != "uart" || herr.Reg != 3 {
		t.Errorf("got Op=%q Space=%q Reg=%d", herr.Op, herr.Space, herr.Reg)
	}

	const want = "hwio: uart: SetBitfield reg 3: value out of range (value 0x9, max 0x7)"
	if err.Error() != want {
		t.Errorf("Error() = %q\nwant %q", err.Error(), want)
	}
}

func TestSpaceBits(t *testing.T) {
	regs := NewSpace("dev32", make([]uint32, 2), endian.New(endian.ForcedLittle)).Checked()

	for _, n := range []uint{0, 7, 8, 31} {
		if err := regs.SetBit(1, n, 1); err != nil {
			t.Fatal(err)
		}
	}
	want := uint32(1<<0 | 1<<7 | 1<<8 | 1<<31)
	if got, _ := regs.Register(1); got != want {
		t.Errorf("Register(1) = %#x, want %#x", got, want)
	}
	if got, _ := regs.Bit(1, 31); got != 1 {
		t.Errorf("Bit(1, 31) = %d, want 1", got)
	}
	if err := regs.SetBit(1, 31, 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := regs.Bit(1, 31); got != 0 {
		t.Errorf("Bit(1, 31) = %d, want 0", got)
	}
}

func testCheckedUnchecked[T Word](t *testing.T, order endian.Policy) {
	width := Width[T]()
	a := NewSpace("checked", make([]T, 4), order)
	b := NewSpace("unchecked", make([]T, 4), order)
	ca, ub := a.Checked(), b.Unchecked()

	step := 0
	for reg := range uint(4) {
		for lo := uint(0); lo < width; lo += 3 {
			hi := min(lo+reg+1, width-1)
			val := T(uint64(step*0x9E37_79B9) & MaxFieldValue(lo, hi))
			step++

			if err := ca.SetBitfield(reg, lo, hi, val); err != nil {
				t.Fatal(err)
			}
			ub.SetBitfield(reg, lo, hi, val)

			va, _ := ca.Bitfield(reg, lo, hi)
			vb, _ := ub.Bitfield(reg, lo, hi)
			if va != vb {
				t.Fatalf("reg %d bits %d:%d: checked %#x, unchecked %#x", reg, lo, hi, va, vb)
			}
		}
		ra, _ := ca.Register(reg)
		rb, _ := ub.Register(reg)
		if ra != rb {
			t.Fatalf("reg %d: checked %#x, unchecked %#x", reg, ra, rb)
		}
	}
}

func TestCheckedUncheckedAgree(t *testing.T) {
	for _, mode := range allModes {
		order := endian.New(mode)
		t.Run(fmt.Sprintf("8/%s", mode), func(t *testing.T) { testCheckedUnchecked[uint8](t, order) })
		t.Run(fmt.Sprintf("16/%s", mode), func(t *testing.T) { testCheckedUnchecked[uint16](t, order) })
		t.Run(fmt.Sprintf("32/%s", mode), func(t *testing.T) { testCheckedUnchecked[uint32](t, order) })
	}
}

func TestUncheckedPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("unchecked access out of range should panic")
		}
	}()
	regs := NewSpace("dev", make([]uint8, 2), endian.New(endian.HostNative)).Unchecked()
	regs.Register(2)
}

// Distinct spaces share nothing and can be used from distinct goroutines.
func TestIndependentSpaces(t *testing.T) {
	order := endian.New(endian.HostNative)

	var g errgroup.Group
	for i := range 8 {
		g.Go(func() error {
			regs := NewSpace(fmt.Sprintf("dev%d", i), make([]uint16, 16), order).Checked()
			for n := range 1000 {
				reg := uint(n % 16)
				val := uint16(n+i) & 0x3F
				if err := regs.SetBitfield(reg, 4, 9, val); err != nil {
					return err
				}
				got, err := regs.Bitfield(reg, 4, 9)
				if err != nil {
					return err
				}
				if got != val {
					return fmt.Errorf("space %d reg %d: got %#x, want %#x", i, reg, got, val)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
