// Package devices opens the register spaces described by a configuration and
// gives access to them by name, whatever their register width.
package devices

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"bitbang/hw/endian"
	"bitbang/hw/hwio"
)

// Device is a register space of any width. Values are carried as uint32 and
// must fit in the device register width.
type Device interface {
	Name() string
	Width() uint
	Size() int
	Available() bool

	Register(reg uint) (uint32, error)
	SetRegister(reg uint, val uint32) error
	Bitfield(reg, lo, hi uint) (uint32, error)
	SetBitfield(reg, lo, hi uint, val uint32) error

	Dump(w io.Writer) error
	EncodeJSON(e *jx.Encoder)
	Close() error
}

// Wrap returns a Device over space. Accesses are validated unless unchecked
// is true. A space that is unavailable when wrapped is always checked, so that
// its accesses fail instead of panicking.
func Wrap[T hwio.Word](space *hwio.Space[T], unchecked bool) Device {
	d := &device[T]{Space: space, regs: space.Checked()}
	if unchecked && space.Available() {
		d.regs = space.Unchecked()
	}
	return d
}

type device[T hwio.Word] struct {
	*hwio.Space[T]
	regs hwio.Registers[T]
}

// narrow converts val to T, or fails if it doesn't fit.
func (d *device[T]) narrow(op string, reg uint, val uint32) (T, error) {
	if uint64(val) > hwio.MaxFieldValue(0, hwio.Width[T]()-1) {
		return 0, &hwio.Error{Op: op, Space: d.Name(), Reg: int(reg), Err: hwio.ErrValueOutOfRange}
	}
	return T(val), nil
}

func (d *device[T]) Register(reg uint) (uint32, error) {
	v, err := d.regs.Register(reg)
	return uint32(v), err
}

func (d *device[T]) SetRegister(reg uint, val uint32) error {
	v, err := d.narrow("SetRegister", reg, val)
	if err != nil {
		return err
	}
	return d.regs.SetRegister(reg, v)
}

func (d *device[T]) Bitfield(reg, lo, hi uint) (uint32, error) {
	v, err := d.regs.Bitfield(reg, lo, hi)
	return uint32(v), err
}

func (d *device[T]) SetBitfield(reg, lo, hi uint, val uint32) error {
	v, err := d.narrow("SetBitfield", reg, val)
	if err != nil {
		return err
	}
	return d.regs.SetBitfield(reg, lo, hi, v)
}

// Open creates the device described by dc. Devices without a path are backed
// by a zeroed RAM buffer.
//
// When mapping the device fails, Open returns the error along with a device
// that is permanently unavailable.
func Open(dc DeviceConfig, order endian.Policy, unchecked bool) (Device, error) {
	switch dc.Width {
	case 8:
		return open[uint8](dc, order, unchecked)
	case 16:
		return open[uint16](dc, order, unchecked)
	case 32:
		return open[uint32](dc, order, unchecked)
	}
	return nil, errors.Errorf("device %s: invalid width %d", dc.Name, dc.Width)
}

func open[T hwio.Word](dc DeviceConfig, order endian.Policy, unchecked bool) (Device, error) {
	if dc.Path == "" {
		return Wrap(hwio.NewSpace(dc.Name, make([]T, dc.Size), order), unchecked), nil
	}
	space, err := hwio.MapSpace[T](dc.Name, dc.Path, dc.Offset, dc.Size, order)
	return Wrap(space, unchecked), err
}
