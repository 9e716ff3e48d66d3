package devices

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"bitbang/hw/endian"
	"bitbang/hw/hwio"
	"bitbang/log"
)

// Board is a set of named devices, and of named fields within them.
type Board struct {
	Name string

	devs   map[string]Device
	fields map[string]map[string]hwio.Field
}

func NewBoard(name string) *Board {
	b := new(Board)
	b.Name = name
	b.Reset()
	return b
}

// Reset removes all devices from the board, without closing them.
func (b *Board) Reset() {
	b.devs = make(map[string]Device)
	b.fields = make(map[string]map[string]hwio.Field)
}

// Map adds dev and its fields to the board.
func (b *Board) Map(dev Device, fields ...hwio.Field) error {
	name := dev.Name()
	if _, ok := b.devs[name]; ok {
		return errors.Errorf("board %s: device %s already mapped", b.Name, name)
	}

	fm := make(map[string]hwio.Field, len(fields))
	for _, f := range fields {
		if _, ok := fm[f.Name]; ok {
			return errors.Errorf("board %s: device %s: duplicate field %s", b.Name, name, f.Name)
		}
		fm[f.Name] = f
	}

	log.ModDevices.DebugZ("mapping device").
		String("board", b.Name).
		String("dev", name).
		Uint("width", dev.Width()).
		Int("size", dev.Size()).
		Bool("available", dev.Available()).
		Int("fields", len(fields)).
		End()

	b.devs[name] = dev
	b.fields[name] = fm
	return nil
}

// Unmap removes the named device from the board and closes it.
func (b *Board) Unmap(name string) error {
	dev, ok := b.devs[name]
	if !ok {
		return errors.Errorf("board %s: no such device %s", b.Name, name)
	}
	delete(b.devs, name)
	delete(b.fields, name)
	return dev.Close()
}

func (b *Board) Lookup(name string) (Device, bool) {
	dev, ok := b.devs[name]
	return dev, ok
}

// Field returns the field named field of device dev.
func (b *Board) Field(dev, field string) (hwio.Field, bool) {
	f, ok := b.fields[dev][field]
	return f, ok
}

// Fields returns the fields of device dev, sorted by register, whole register
// first, then by bit range and name.
func (b *Board) Fields(dev string) []hwio.Field {
	fields := slices.Collect(maps.Values(b.fields[dev]))
	slices.SortFunc(fields, func(a, b hwio.Field) int {
		if c := cmp.Compare(a.Reg, b.Reg); c != 0 {
			return c
		}
		if a.Whole != b.Whole {
			if a.Whole {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Hi, b.Hi); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return fields
}

// Names returns the names of the mapped devices, sorted.
func (b *Board) Names() []string {
	return slices.Sorted(maps.Keys(b.devs))
}

// Close closes all devices and empties the board. It returns the first error
// encountered.
func (b *Board) Close() error {
	var first error
	for _, name := range b.Names() {
		if err := b.devs[name].Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", name)
		}
	}
	b.Reset()
	return first
}

// OpenBoard opens all the devices of cfg and maps them onto a new board.
// Devices that fail to map are still added to the board, unavailable, and the
// failure is logged.
func OpenBoard(name string, cfg Config, mode endian.Mode, unchecked bool) (*Board, error) {
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	order := endian.New(mode)
	b := NewBoard(name)
	for _, dc := range cfg.Devices {
		fields := make([]hwio.Field, len(dc.Fields))
		for i, fc := range dc.Fields {
			f, err := fc.Field()
			if err != nil {
				b.Close()
				return nil, errors.Wrapf(err, "device %s: field %s", dc.Name, fc.Name)
			}
			fields[i] = f
		}

		dev, err := Open(dc, order, unchecked)
		if err != nil {
			if dev == nil {
				b.Close()
				return nil, err
			}
			log.ModDevices.WarnZ("device unavailable").
				String("dev", dc.Name).
				Error("err", err).
				End()
		}
		if err := b.Map(dev, fields...); err != nil {
			dev.Close()
			b.Close()
			return nil, err
		}
	}
	return b, nil
}
