package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/go-faster/errors"

	"bitbang/hw/devices"
	"bitbang/hw/endian"
	"bitbang/hw/hwio"
)

const replSize = 32

// replDevices holds one RAM backed device of each width. Their buffers are
// kept to be cleared before each round.
type replDevices struct {
	buf8  []uint8
	buf16 []uint16
	buf32 []uint32
	devs  []devices.Device
}

func newReplDevices(order endian.Policy, unchecked bool) *replDevices {
	rd := &replDevices{
		buf8:  make([]uint8, replSize),
		buf16: make([]uint16, replSize),
		buf32: make([]uint32, replSize),
	}
	rd.devs = []devices.Device{
		devices.Wrap(hwio.NewSpace("device8", rd.buf8, order), unchecked),
		devices.Wrap(hwio.NewSpace("device16", rd.buf16, order), unchecked),
		devices.Wrap(hwio.NewSpace("device32", rd.buf32, order), unchecked),
	}
	return rd
}

func (rd *replDevices) reset() {
	clear(rd.buf8)
	clear(rd.buf16)
	clear(rd.buf32)
}

// scanner reads whitespace separated unsigned integers.
type scanner struct {
	s   *bufio.Scanner
	out io.Writer
}

func (sc *scanner) uint(prompt string) (uint, error) {
	fmt.Fprint(sc.out, prompt)
	if !sc.s.Scan() {
		if err := sc.s.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	v, err := strconv.ParseUint(sc.s.Text(), 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", sc.s.Text())
	}
	return uint(v), nil
}

func (sc *scanner) uints(prompts ...string) ([]uint, error) {
	vals := make([]uint, len(prompts))
	for i, p := range prompts {
		v, err := sc.uint(p)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// showValues demonstrates bitfield access on bare values of each width.
func showValues(out io.Writer, order endian.Policy) error {
	var (
		v8  uint8
		v16 uint16
		v32 uint32
	)
	fmt.Fprintf(out, "value8: 0x%02x, value16: 0x%04x, value32: 0x%08x\n", v8, v16, v32)
	if err := hwio.SetBitfield(order, &v8, 0, 1, 3); err != nil {
		return err
	}
	if err := hwio.SetBitfield(order, &v16, 0, 1, 3); err != nil {
		return err
	}
	if err := hwio.SetBitfield(order, &v32, 0, 1, 3); err != nil {
		return err
	}
	fmt.Fprintf(out, "value8: 0x%02x, value16: 0x%04x, value32: 0x%08x\n", v8, v16, v32)

	g8, err := hwio.GetBitfield(order, v8, 0, 1)
	if err != nil {
		return err
	}
	g16, err := hwio.GetBitfield(order, v16, 0, 1)
	if err != nil {
		return err
	}
	g32, err := hwio.GetBitfield(order, v32, 0, 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "getValue8: %d, getValue16: %d, getValue32: %d\n", g8, g16, g32)
	return nil
}

// repl reads register and bitfield writes from in, applies them to a RAM
// device of each width and prints the results, until in is exhausted.
func repl(in io.Reader, out io.Writer, order endian.Policy, unchecked bool) error {
	if err := showValues(out, order); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s detected, policy %s\n", hostOrder(endian.HostIsBigEndian()), order)

	rd := newReplDevices(order, unchecked)
	sc := &scanner{s: bufio.NewScanner(in), out: out}
	sc.s.Split(bufio.ScanWords)

	for {
		for _, d := range rd.devs {
			fmt.Fprintln(out)
			if err := d.Dump(out); err != nil {
				return err
			}
		}
		rd.reset()

		err := replRound(sc, rd.devs)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(out)
			return nil
		case errors.Is(err, strconv.ErrSyntax), errors.Is(err, strconv.ErrRange):
			fmt.Fprintf(out, "%v\n", err)
		case err != nil:
			return err
		}
	}
}

func replRound(sc *scanner, devs []devices.Device) error {
	out := sc.out

	v, err := sc.uints("\nenter register: ", "enter value: ")
	if err != nil {
		return err
	}
	reg, value := v[0], v[1]
	for _, d := range devs {
		if err := d.SetRegister(reg, uint32(value)); err != nil {
			fmt.Fprintf(out, "%s: %v\n", d.Name(), err)
			continue
		}
		got, err := d.Register(reg)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", d.Name(), err)
			continue
		}
		fmt.Fprintf(out, "%s register: %d, value: %d\n", d.Name(), reg, got)
	}

	v, err = sc.uints("\nenter register: ", "enter lowOrderBit: ", "enter highOrderBit: ", "enter value: ")
	if err != nil {
		return err
	}
	reg, lo, hi, value := v[0], v[1], v[2], v[3]
	for _, d := range devs {
		if err := d.SetBitfield(reg, lo, hi, uint32(value)); err != nil {
			fmt.Fprintf(out, "%s: %v\n", d.Name(), err)
			continue
		}
		got, err := d.Bitfield(reg, lo, hi)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", d.Name(), err)
			continue
		}
		fmt.Fprintf(out, "%s register: %d, bitfield: %d-%d, value: %d\n", d.Name(), reg, lo, hi, got)
	}
	return nil
}
