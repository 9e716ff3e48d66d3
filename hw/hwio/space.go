package hwio

import (
	"fmt"

	"github.com/go-faster/errors"

	"bitbang/hw/endian"
	"bitbang/log"
)

// Space is a named, bounded sequence of registers of type T.
//
// Registers hold raw values, as laid out in memory. Accesses go through one of
// the Registers implementations returned by Checked and Unchecked.
//
// A Space does no locking. Callers sharing a space between goroutines must
// serialize accesses themselves: a read concurrent to a bitfield write (which
// is a read-modify-write sequence) can observe a torn value.
type Space[T Word] struct {
	name    string
	size    int
	regs    []T
	bf      Bitfield[T]
	release func() error // non-nil when the space owns its storage
}

// NewSpace returns a space over buf, which remains owned by the caller. A nil
// buf gives a space whose accesses all fail with ErrStorageUnavailable.
func NewSpace[T Word](name string, buf []T, order endian.Policy) *Space[T] {
	return &Space[T]{
		name: name,
		size: len(buf),
		regs: buf,
		bf:   NewBitfield[T](order),
	}
}

func (s *Space[T]) Name() string { return s.name }

// Size returns the number of registers in the space.
func (s *Space[T]) Size() int { return s.size }

// Width returns the register width in bits.
func (s *Space[T]) Width() uint { return Width[T]() }

// Available reports whether the space has backing storage.
func (s *Space[T]) Available() bool { return s.regs != nil }

// Close releases the storage if the space owns it. The space is unavailable
// afterwards. Close can be called multiple times, storage is only released
// once.
func (s *Space[T]) Close() error {
	s.regs = nil
	if s.release == nil {
		return nil
	}
	release := s.release
	s.release = nil
	log.ModMap.DebugZ("releasing storage").String("space", s.name).End()
	return release()
}

func (s *Space[T]) String() string {
	return fmt.Sprintf("%s{%d-bit,size=%d}", s.name, Width[T](), s.size)
}

// Checked returns the Registers view that validates every access.
func (s *Space[T]) Checked() Registers[T] { return checked[T]{s} }

// Unchecked returns the Registers view that performs no validation. Invalid
// register indices panic as out of range slice accesses would, invalid bit
// ranges and values give unspecified results. Use it only where the indices
// and bitfields are known to be valid.
func (s *Space[T]) Unchecked() Registers[T] { return unchecked[T]{s} }

// Registers gives access to the registers of a Space. Whole register values
// are canonical, that is in the same order bitfields are numbered against.
type Registers[T Word] interface {
	Name() string
	Size() int
	Width() uint

	Register(reg uint) (T, error)
	SetRegister(reg uint, val T) error

	Bitfield(reg, lo, hi uint) (T, error)
	SetBitfield(reg, lo, hi uint, val T) error

	Bit(reg, n uint) (T, error)
	SetBit(reg, n uint, val T) error
}

type checked[T Word] struct{ *Space[T] }

func (c checked[T]) check(op string, reg uint) error {
	switch {
	case c.regs == nil:
		return &Error{Op: op, Space: c.name, Reg: int(reg), Err: ErrStorageUnavailable}
	case reg >= uint(len(c.regs)):
		return &Error{
			Op:    op,
			Space: c.name,
			Reg:   int(reg),
			Err:   ErrRegisterOutOfRange,
			msg:   fmt.Sprintf("size %d", len(c.regs)),
		}
	}
	return nil
}

func (c checked[T]) fail(op string, reg uint, err error) error {
	var herr *Error
	if errors.As(err, &herr) {
		cpy := *herr
		cpy.Op = op
		cpy.Space = c.name
		cpy.Reg = int(reg)
		herr = &cpy
		err = herr
	}

	z := log.ModHwIo.ErrorZ("invalid " + op)
	if herr != nil {
		z = z.String("space", herr.Space).
			Int("reg", herr.Reg).
			String("err", herr.Err.Error()).
			String("detail", herr.msg)
	}
	z.End()
	return err
}

func (c checked[T]) Register(reg uint) (T, error) {
	if err := c.check("Register", reg); err != nil {
		return 0, c.fail("Register", reg, err)
	}
	return c.bf.Load(c.regs[reg]), nil
}

func (c checked[T]) SetRegister(reg uint, val T) error {
	if err := c.check("SetRegister", reg); err != nil {
		return c.fail("SetRegister", reg, err)
	}
	c.regs[reg] = c.bf.Store(val)
	return nil
}

func (c checked[T]) Bitfield(reg, lo, hi uint) (T, error) {
	if err := c.check("Bitfield", reg); err != nil {
		return 0, c.fail("Bitfield", reg, err)
	}
	v, err := c.bf.Extract(c.regs[reg], lo, hi)
	if err != nil {
		return 0, c.fail("Bitfield", reg, err)
	}
	return v, nil
}

func (c checked[T]) SetBitfield(reg, lo, hi uint, val T) error {
	if err := c.check("SetBitfield", reg); err != nil {
		return c.fail("SetBitfield", reg, err)
	}
	// Work on a copy so that the register sees a single store, and none on
	// error.
	v := c.regs[reg]
	if err := c.bf.Insert(&v, lo, hi, val); err != nil {
		return c.fail("SetBitfield", reg, err)
	}
	c.regs[reg] = v
	return nil
}

func (c checked[T]) Bit(reg, n uint) (T, error) {
	return c.Bitfield(reg, n, n)
}

func (c checked[T]) SetBit(reg, n uint, val T) error {
	return c.SetBitfield(reg, n, n, val)
}

type unchecked[T Word] struct{ *Space[T] }

func (u unchecked[T]) Register(reg uint) (T, error) {
	return u.bf.Load(u.regs[reg]), nil
}

func (u unchecked[T]) SetRegister(reg uint, val T) error {
	u.regs[reg] = u.bf.Store(val)
	return nil
}

func (u unchecked[T]) Bitfield(reg, lo, hi uint) (T, error) {
	return u.bf.extract(u.regs[reg], lo, hi), nil
}

func (u unchecked[T]) SetBitfield(reg, lo, hi uint, val T) error {
	u.regs[reg] = u.bf.insert(u.regs[reg], lo, hi, val)
	return nil
}

func (u unchecked[T]) Bit(reg, n uint) (T, error) {
	return u.bf.extract(u.regs[reg], n, n), nil
}

func (u unchecked[T]) SetBit(reg, n uint, val T) error {
	u.regs[reg] = u.bf.insert(u.regs[reg], n, n, val)
	return nil
}
