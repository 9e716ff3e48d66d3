//go:build !unix

package hwio

import (
	"runtime"

	"github.com/go-faster/errors"
)

func mapRegion(path string, offset int64, length int) ([]byte, func() error, error) {
	return nil, nil, errors.Errorf("memory mapping is not supported on %s", runtime.GOOS)
}
