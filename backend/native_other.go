//go:build !(darwin || freebsd || linux)

package backend

import (
	"runtime"

	"github.com/deepnoodle-ai/scalarvm/errz"
)

func loadLibrary(path string) (library, error) {
	return nil, errz.Resolutionf("cannot load native library %q: unsupported on %s", path, runtime.GOOS)
}
