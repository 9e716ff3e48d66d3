package endian

import (
	"github.com/go-faster/errors"
)

//go:generate go tool stringer -type=Mode -linecomment

// Mode selects how multi-byte registers are interpreted before bit
// arithmetic.
type Mode uint8

const (
	HostNative   Mode = iota // host
	ForcedBig                // big
	ForcedLittle             // little
)

// ParseMode parses a mode name, as returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	for m := HostNative; m <= ForcedLittle; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown endianness mode %q (want host, big or little)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m > ForcedLittle {
		return nil, errors.Errorf("invalid endianness mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
