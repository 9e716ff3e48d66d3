//go:build unix

package hwio

import (
	"os"

	"github.com/go-faster/errors"
	"golang.org/x/sys/unix"
)

// mapRegion maps length bytes of path, starting at byte offset, for reading
// and writing. offset doesn't need to be page aligned.
func mapRegion(path string, offset int64, length int) ([]byte, func() error, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, nil, err
	}
	// The mapping outlives the file descriptor.
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	// Touching a page past the end of a regular file raises SIGBUS.
	if fi.Mode().IsRegular() && fi.Size() < offset+int64(length) {
		return nil, nil, errors.Errorf("%s: file too small (%d bytes) for %d bytes at offset %#x", path, fi.Size(), length, offset)
	}

	pagesize := int64(unix.Getpagesize())
	base := offset &^ (pagesize - 1)
	skip := int(offset - base)

	mem, err := unix.Mmap(int(f.Fd()), base, skip+length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mmap")
	}
	return mem[skip : skip+length : skip+length], func() error { return unix.Munmap(mem) }, nil
}
