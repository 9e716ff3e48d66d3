package devices

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"bitbang/hw/hwio"
)

// A Layout describes the register map of a known device model.
type Layout struct {
	Name   string
	Width  uint
	Base   int64 // physical base address
	Size   int   // in registers
	Fields []hwio.Field
}

// Sample register maps. All three share the same organization: register 0
// holds four bitfields, registers 1 to 7 are plain registers.
type (
	sample8 struct {
		Reg0      hwio.Field `hwio:"reg=0"`
		Bitfield1 hwio.Field `hwio:"reg=0,bit=0"`
		Bitfield2 hwio.Field `hwio:"reg=0,bits=1:2"`
		Bitfield3 hwio.Field `hwio:"reg=0,bits=3:5"`
		Bitfield4 hwio.Field `hwio:"reg=0,bits=6:7"`
		Reg1      hwio.Field `hwio:"reg=1"`
		Reg2      hwio.Field `hwio:"reg=2"`
		Reg3      hwio.Field `hwio:"reg=3"`
		Reg4      hwio.Field `hwio:"reg=4"`
		Reg5      hwio.Field `hwio:"reg=5"`
		Reg6      hwio.Field `hwio:"reg=6"`
		Reg7      hwio.Field `hwio:"reg=7"`
	}

	sample16 sample8
	sample32 sample8
)

var layouts = map[string]Layout{}

func registerLayout(name string, width uint, base int64, size int, regs any) {
	fields, err := hwio.Fields(regs)
	if err != nil {
		panic(err)
	}
	for i := range fields {
		fields[i].Name = strings.ToLower(fields[i].Name)
	}
	layouts[name] = Layout{Name: name, Width: width, Base: base, Size: size, Fields: fields}
}

func init() {
	registerLayout("my8bit", 8, 0x08000000, 8, &sample8{})
	registerLayout("my16bit", 16, 0x08000000, 8, &sample16{})
	registerLayout("my32bit", 32, 0x08000000, 8, &sample32{})
}

// LayoutByName returns the known layout with the given name.
func LayoutByName(name string) (Layout, bool) {
	l, ok := layouts[name]
	return l, ok
}

// LayoutNames returns the sorted names of all known layouts.
func LayoutNames() []string {
	return slices.Sorted(maps.Keys(layouts))
}

// applyLayout fills the unset width, size, offset and fields of dc from its
// layout, if any.
func (dc *DeviceConfig) applyLayout() error {
	if dc.Layout == "" {
		return nil
	}
	l, ok := LayoutByName(dc.Layout)
	if !ok {
		return errors.Errorf("unknown layout %q", dc.Layout)
	}
	if dc.Width == 0 {
		dc.Width = l.Width
	}
	if dc.Width != l.Width {
		return errors.Errorf("layout %s: width %d, device width %d", l.Name, l.Width, dc.Width)
	}
	if dc.Size == 0 {
		dc.Size = l.Size
	}
	if dc.Offset == 0 && dc.Path != "" {
		dc.Offset = l.Base
	}
	if len(dc.Fields) == 0 {
		dc.Fields = make([]FieldConfig, 0, len(l.Fields))
		for _, f := range l.Fields {
			fc := FieldConfig{Name: f.Name, Reg: f.Reg}
			switch {
			case f.Whole:
			case f.Lo == f.Hi:
				fc.Bits = strconv.FormatUint(uint64(f.Lo), 10)
			default:
				fc.Bits = strconv.FormatUint(uint64(f.Lo), 10) + ":" + strconv.FormatUint(uint64(f.Hi), 10)
			}
			dc.Fields = append(dc.Fields, fc)
		}
	}
	return nil
}

// resolve applies device layouts. cfg.Devices is copied first so that the
// caller's configuration is left untouched.
func (cfg *Config) resolve() error {
	cfg.Devices = slices.Clone(cfg.Devices)
	for i := range cfg.Devices {
		if err := cfg.Devices[i].applyLayout(); err != nil {
			return errors.Wrapf(err, "device %s", cfg.Devices[i].Name)
		}
	}
	return nil
}
