//go:build darwin || freebsd || linux

package backend

import (
	"github.com/ebitengine/purego"

	"github.com/deepnoodle-ai/scalarvm/errz"
)

type dynamicLibrary struct {
	handle uintptr
}

func loadLibrary(path string) (library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, errz.Resolutionf("cannot load native library %q", path).WithCause(err)
	}
	return &dynamicLibrary{handle: handle}, nil
}

func (l *dynamicLibrary) lookup(name string) (uintptr, error) {
	return purego.Dlsym(l.handle, name)
}

func (l *dynamicLibrary) intFunc(sym uintptr) func(int32, int32) int32 {
	var fn func(int32, int32) int32
	purego.RegisterFunc(&fn, sym)
	return fn
}

func (l *dynamicLibrary) floatFunc(sym uintptr) func(float32, float32) float32 {
	var fn func(float32, float32) float32
	purego.RegisterFunc(&fn, sym)
	return fn
}

func (l *dynamicLibrary) close() error {
	return purego.Dlclose(l.handle)
}
