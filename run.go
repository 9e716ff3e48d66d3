package main

import (
	"fmt"
	"io"
	"runtime/debug"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"bitbang/hw/devices"
	"bitbang/hw/endian"
	"bitbang/hw/hwio"
	"bitbang/log"
)

// loadConfig loads the configuration at path, or the default configuration
// if path is empty.
func loadConfig(path string) (devices.Config, error) {
	if path == "" {
		return devices.LoadConfigOrDefault(), nil
	}
	return devices.LoadConfig(path)
}

// effectiveMode returns the byte order mode in effect: the command line flag
// wins over the configuration file, which wins over the build default.
func effectiveMode(flag string, cfg devices.Config) (endian.Mode, error) {
	if flag != "" {
		return endian.ParseMode(flag)
	}
	return cfg.Mode(), nil
}

// cmdContext tags every log entry with the running command.
type cmdContext string

func (c cmdContext) AddLogContext(z *log.EntryZ) {
	z.String("cmd", string(c))
}

type app struct {
	board *devices.Board
	order endian.Policy
	out   io.Writer
}

func newApp(cfg devices.Config, mode endian.Mode, unchecked bool, out io.Writer) (*app, error) {
	board, err := devices.OpenBoard("bitbang", cfg, mode, unchecked)
	if err != nil {
		return nil, err
	}
	log.ModCLI.DebugZ("devices opened").
		Stringer("endian", mode).
		Bool("unchecked", unchecked).
		Int("devices", len(board.Names())).
		End()
	return &app{board: board, order: endian.New(mode), out: out}, nil
}

func (a *app) close() {
	if err := a.board.Close(); err != nil {
		log.ModCLI.WarnZ("failed to close devices").Error("err", err).End()
	}
}

func hostOrder(big bool) string {
	if big {
		return "big endian"
	}
	return "little endian"
}

func (a *app) printEndian() {
	fmt.Fprintf(a.out, "host byte order: %s\n", hostOrder(endian.HostIsBigEndian()))
	fmt.Fprintf(a.out, "build default:   %s\n", endian.Default)
	fmt.Fprintf(a.out, "policy:          %s (%s", a.order.Mode(), hostOrder(a.order.IsBigEndian()))
	if a.order.Swaps() {
		fmt.Fprint(a.out, ", byte swapped")
	}
	fmt.Fprintln(a.out, ")")
}

// target resolves the device, then the register or field designated by reg
// and the optional bits.
func (a *app) target(dev, reg, bits string) (devices.Device, hwio.Field, error) {
	d, ok := a.board.Lookup(dev)
	if !ok {
		return nil, hwio.Field{}, errors.Errorf("unknown device %s", dev)
	}

	n, err := strconv.ParseUint(reg, 0, 32)
	if err != nil {
		f, ok := a.board.Field(dev, reg)
		if !ok {
			return nil, hwio.Field{}, errors.Errorf("device %s: unknown field %s", dev, reg)
		}
		if bits != "" {
			return nil, hwio.Field{}, errors.Errorf("device %s: bits can't be given for field %s", dev, reg)
		}
		return d, f, nil
	}

	f := hwio.Field{Name: reg, Reg: uint(n), Whole: true}
	if bits != "" {
		if f.Lo, f.Hi, err = hwio.ParseBits(bits); err != nil {
			return nil, hwio.Field{}, err
		}
		f.Whole = false
	}
	return d, f, nil
}

func describe(f hwio.Field) string {
	switch {
	case f.Whole:
		return fmt.Sprintf("reg %d", f.Reg)
	case f.Lo == f.Hi:
		return fmt.Sprintf("reg %d bit %d", f.Reg, f.Lo)
	}
	return fmt.Sprintf("reg %d bits %d:%d", f.Reg, f.Lo, f.Hi)
}

func read(d devices.Device, f hwio.Field) (uint32, error) {
	if f.Whole {
		return d.Register(f.Reg)
	}
	return d.Bitfield(f.Reg, f.Lo, f.Hi)
}

func (a *app) get(args Get) error {
	d, f, err := a.target(args.Device, args.Reg, args.Bits)
	if err != nil {
		return err
	}
	v, err := read(d, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %#x (%d)\n", d.Name(), describe(f), v, v)
	return nil
}

func (a *app) set(args Set) error {
	bits, value := args.bitsValue()
	d, f, err := a.target(args.Device, args.Reg, bits)
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid value %s", value)
	}

	if f.Whole {
		err = d.SetRegister(f.Reg, uint32(v))
	} else {
		err = d.SetBitfield(f.Reg, f.Lo, f.Hi, uint32(v))
	}
	if err != nil {
		return err
	}

	// Read back, as the register may not behave as memory.
	got, err := read(d, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %#x (%d)\n", d.Name(), describe(f), got, got)
	return nil
}

func (a *app) dump(args Dump) error {
	names := args.Devices
	if len(names) == 0 {
		names = a.board.Names()
	}
	devs := make([]devices.Device, len(names))
	for i, name := range names {
		d, ok := a.board.Lookup(name)
		if !ok {
			return errors.Errorf("unknown device %s", name)
		}
		devs[i] = d
	}

	if args.JSON {
		var e jx.Encoder
		e.ArrStart()
		for _, d := range devs {
			d.EncodeJSON(&e)
		}
		e.ArrEnd()
		_, err := fmt.Fprintln(a.out, e.String())
		return err
	}

	for i, d := range devs {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		if err := d.Dump(a.out); err != nil {
			return err
		}
	}
	return nil
}

func printLayouts(w io.Writer) {
	for _, name := range devices.LayoutNames() {
		l, _ := devices.LayoutByName(name)
		fmt.Fprintf(w, "%s: %d-bit, %d registers, base %#08x\n", l.Name, l.Width, l.Size, l.Base)
		for _, f := range l.Fields {
			fmt.Fprintf(w, "\t%-10s %s\n", f.Name, describe(f))
		}
	}
}

func printVersion(w io.Writer) {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Fprintf(w, "bitbang %s (default byte order policy: %s)\n", version, endian.Default)
}
