package hwio_test

import (
	"fmt"

	"bitbang/hw/endian"
	"bitbang/hw/hwio"
)

// Timer16 is a 16-bit device with 8 registers.
type Timer16 struct {
	Ctrl     hwio.Field `hwio:"reg=0"`
	Enable   hwio.Field `hwio:"reg=0,bit=0"`
	Mode     hwio.Field `hwio:"reg=0,bits=1:2"`
	Prescale hwio.Field `hwio:"reg=0,bits=3:5"`
	Count    hwio.Field `hwio:"reg=4"`
}

func Example() {
	var tim Timer16
	hwio.MustInitFields(&tim)

	// A RAM buffer stands in for the mapped device.
	space := hwio.NewSpace("timer", make([]uint16, 8), endian.New(endian.HostNative))
	defer space.Close()
	regs := space.Checked()

	hwio.SetField(regs, tim.Mode, 2)
	hwio.SetField(regs, tim.Prescale, 5)
	hwio.SetField(regs, tim.Enable, 1)

	ctrl, _ := hwio.GetField(regs, tim.Ctrl)
	fmt.Printf("ctrl: %#04x\n", ctrl)

	if err := hwio.SetField(regs, tim.Prescale, 9); err != nil {
		fmt.Println(err)
	}
	// Output:
	// ctrl: 0x002d
	// hwio: timer: SetBitfield reg 0: value out of range (value 0x9, max 0x7)
}

func ExampleGetBitfield() {
	order := endian.New(endian.ForcedBig)

	var v uint32
	hwio.SetBitfield(order, &v, 28, 31, 0xA)
	hwio.SetBitfield(order, &v, 0, 7, 0x5C)

	hi, _ := hwio.GetBitfield(order, v, 24, 31)
	fmt.Printf("%#08x %#02x\n", v, hi)
	// Output:
	// 0xa000005c 0xa0
}
