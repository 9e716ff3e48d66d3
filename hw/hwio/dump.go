package hwio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-faster/jx"
)

const dumpRowLen = 16

// Dump writes a hex dump of the raw register values of s, 16 registers per
// row, each row prefixed with the index of its first register.
func (s *Space[T]) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	digits := int(Width[T]() / 4)

	fmt.Fprintf(bw, "%d-bit device %s raw hex dump:\n\n", Width[T](), s.name)
	if s.regs == nil {
		fmt.Fprintln(bw, "storage unavailable")
		return bw.Flush()
	}

	for i, v := range s.regs {
		if i%dumpRowLen == 0 {
			if i > 0 {
				bw.WriteByte('\n')
			}
			fmt.Fprintf(bw, "%04x  ", i)
		}
		fmt.Fprintf(bw, "%0*x ", digits, uint32(v))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// EncodeJSON writes s as a JSON object. Register values are canonical, as
// returned by Registers.Register.
func (s *Space[T]) EncodeJSON(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(s.name)
	e.FieldStart("width")
	e.UInt(Width[T]())
	e.FieldStart("size")
	e.Int(s.size)
	e.FieldStart("endian")
	e.Str(s.bf.order.Mode().String())
	e.FieldStart("available")
	e.Bool(s.regs != nil)
	e.FieldStart("registers")
	e.ArrStart()
	for _, v := range s.regs {
		e.UInt32(uint32(s.bf.Load(v)))
	}
	e.ArrEnd()
	e.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (s *Space[T]) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	s.EncodeJSON(&e)
	return e.Bytes(), nil
}
