package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unsafe"

	"github.com/go-faster/errors"
	"golang.org/x/exp/constraints"
)

// Field locates a register, or a bitfield within a register, in a register
// space. Device definitions declare fields as tagged struct fields and call
// InitFields:
//
//	type UART struct {
//		Data   hwio.Field `hwio:"reg=0"`
//		Parity hwio.Field `hwio:"reg=1,bits=1:2"`
//		Enable hwio.Field `hwio:"reg=1,bit=7"`
//	}
//
// The "hwio" struct tag accepts the following options:
//
//	reg=N           Register index within the space. Required.
//
//	bits=LO:HI      Inclusive bit range of the field, LO <= HI.
//	bit=N           Single bit field, same as bits=N:N.
//
//	name=S          Field name, defaults to the struct field name.
//
// Without bits or bit the field designates the whole register.
type Field struct {
	Name  string
	Reg   uint
	Lo    uint
	Hi    uint
	Whole bool
}

func (f Field) String() string {
	if f.Whole {
		return fmt.Sprintf("%s{reg=%d}", f.Name, f.Reg)
	}
	if f.Lo == f.Hi {
		return fmt.Sprintf("%s{reg=%d,bit=%d}", f.Name, f.Reg, f.Lo)
	}
	return fmt.Sprintf("%s{reg=%d,bits=%d:%d}", f.Name, f.Reg, f.Lo, f.Hi)
}

// GetField reads field f from r.
func GetField[T Word](r Registers[T], f Field) (T, error) {
	if f.Whole {
		return r.Register(f.Reg)
	}
	return r.Bitfield(f.Reg, f.Lo, f.Hi)
}

// SetField writes val to field f of r.
func SetField[T Word](r Registers[T], f Field, val T) error {
	if f.Whole {
		return r.SetRegister(f.Reg, val)
	}
	return r.SetBitfield(f.Reg, f.Lo, f.Hi, val)
}

// ParseBits parses a bit range, either "N" for a single bit or "LO:HI".
func ParseBits(s string) (lo, hi uint, err error) {
	los, his, isRange := strings.Cut(s, ":")
	if lo, err = parseUint[uint](los); err != nil {
		return 0, 0, errors.Wrapf(err, "bits %q", s)
	}
	hi = lo
	if isRange {
		if hi, err = parseUint[uint](his); err != nil {
			return 0, 0, errors.Wrapf(err, "bits %q", s)
		}
	}
	if lo > hi || hi >= 32 {
		return 0, 0, errors.Wrapf(ErrInvalidBitRange, "bits %q", s)
	}
	return lo, hi, nil
}

// parseUint parses a decimal, hexadecimal (0x), octal (0o) or binary (0b)
// number that fits in T.
func parseUint[T constraints.Unsigned](s string) (T, error) {
	var zero T
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, int(unsafe.Sizeof(zero))*8)
	if err != nil {
		return 0, err
	}
	return T(v), nil
}

var fieldType = reflect.TypeOf(Field{})

// InitFields initializes all the tagged Field of the struct pointed to by dev.
func InitFields(dev any) error {
	_, err := structFields(dev)
	return err
}

// MustInitFields is like InitFields but panics on error.
func MustInitFields(dev any) {
	if err := InitFields(dev); err != nil {
		panic(err)
	}
}

// Fields initializes, then returns, the tagged Field of the struct pointed to
// by dev, in declaration order.
func Fields(dev any) ([]Field, error) {
	ptrs, err := structFields(dev)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(ptrs))
	for i, p := range ptrs {
		fields[i] = *p
	}
	return fields, nil
}

func structFields(dev any) ([]*Field, error) {
	v := reflect.ValueOf(dev)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("invalid device type %T: must be a pointer to struct", dev)
	}
	v = v.Elem()
	t := v.Type()

	var fields []*Field
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok || sf.Type != fieldType {
			continue
		}
		if !sf.IsExported() {
			return nil, errors.Errorf("%s.%s: unexported field", t.Name(), sf.Name)
		}

		f, err := parseFieldTag(tag)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", t.Name(), sf.Name)
		}
		if f.Name == "" {
			f.Name = sf.Name
		}

		ptr := v.Field(i).Addr().Interface().(*Field)
		*ptr = f
		fields = append(fields, ptr)
	}
	return fields, nil
}

func parseFieldTag(tag string) (Field, error) {
	f := Field{Whole: true}
	hasReg := false

	for _, opt := range strings.Split(tag, ",") {
		if opt = strings.TrimSpace(opt); opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")

		var err error
		switch key {
		case "reg":
			f.Reg, err = parseUint[uint](val)
			hasReg = true
		case "bits", "bit":
			if key == "bit" && strings.Contains(val, ":") {
				return Field{}, errors.Errorf("bit=%s: single bit expected", val)
			}
			if !f.Whole {
				return Field{}, errors.New("bit range specified twice")
			}
			f.Lo, f.Hi, err = ParseBits(val)
			f.Whole = false
		case "name":
			f.Name = val
		default:
			return Field{}, errors.Errorf("unknown option %q", key)
		}
		if err != nil {
			return Field{}, errors.Wrapf(err, "option %q", key)
		}
	}

	if !hasReg {
		return Field{}, errors.New("missing reg option")
	}
	return f, nil
}
