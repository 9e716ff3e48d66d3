package hwio

import (
	"unsafe"

	"github.com/go-faster/errors"

	"bitbang/hw/endian"
	"bitbang/log"
)

// MapSpace maps size registers of type T from the device (or any mappable
// file) at path, starting at byte offset. The returned space owns the mapping,
// which is released by Close.
//
// When mapping fails MapSpace returns the error along with a space that is
// permanently unavailable: all its accesses fail with ErrStorageUnavailable.
func MapSpace[T Word](name, path string, offset int64, size int, order endian.Policy) (*Space[T], error) {
	s := &Space[T]{
		name: name,
		size: size,
		bf:   NewBitfield[T](order),
	}

	nbytes := int(Width[T]() / 8)
	var err error
	switch {
	case size <= 0:
		err = errors.Errorf("invalid size %d", size)
	case offset < 0 || offset%int64(nbytes) != 0:
		err = errors.Errorf("offset %#x is not aligned on %d bytes", offset, nbytes)
	}

	var (
		buf     []byte
		release func() error
	)
	if err == nil {
		buf, release, err = mapRegion(path, offset, size*nbytes)
	}
	if err != nil {
		log.ModMap.ErrorZ("failed to map register space").
			String("space", name).
			String("path", path).
			Hex64("offset", uint64(offset)).
			Int("size", size).
			Error("err", err).
			End()
		return s, errors.Wrapf(err, "map %s", name)
	}

	s.regs = unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), size)
	s.release = release

	log.ModMap.DebugZ("mapped register space").
		String("space", name).
		String("path", path).
		Hex64("offset", uint64(offset)).
		Int("size", size).
		Uint("width", Width[T]()).
		End()
	return s, nil
}
