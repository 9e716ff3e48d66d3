package hwio

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidBitRange reports lowOrderBit > highOrderBit or a high bit
	// beyond the register width.
	ErrInvalidBitRange = errors.New("invalid bit range")

	// ErrValueOutOfRange reports a value that doesn't fit its destination.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrRegisterOutOfRange reports a register index >= space size.
	ErrRegisterOutOfRange = errors.New("register out of range")

	// ErrStorageUnavailable reports a space without backing storage, either
	// because its mapping failed or because it has been closed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error describes a failed register or bitfield access. It unwraps to one of
// the Err* sentinels above.
type Error struct {
	Op    string // operation, e.g. "SetBitfield"
	Space string // register space name, empty for value-only accesses
	Reg   int    // register index, -1 when not applicable
	Err   error
	msg   string
}

func (e *Error) Error() string {
	s := "hwio: "
	if e.Space != "" {
		s += e.Space + ": "
	}
	s += e.Op
	if e.Reg >= 0 {
		s += fmt.Sprintf(" reg %d", e.Reg)
	}
	s += ": " + e.Err.Error()
	if e.msg != "" {
		s += " (" + e.msg + ")"
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func rangeError(op string, lo, hi, width uint) *Error {
	return &Error{
		Op:  op,
		Reg: -1,
		Err: ErrInvalidBitRange,
		msg: fmt.Sprintf("bits %d:%d, width %d", lo, hi, width),
	}
}

func valueError(op string, val, max uint64) *Error {
	return &Error{
		Op:  op,
		Reg: -1,
		Err: ErrValueOutOfRange,
		msg: fmt.Sprintf("value %#x, max %#x", val, max),
	}
}
