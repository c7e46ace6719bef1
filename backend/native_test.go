package backend

import (
	"errors"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scalarvm/errz"
	"github.com/deepnoodle-ai/scalarvm/op"
)

type fakeLibrary struct {
	missing string
	symbols map[string]uintptr
	bound   int
	calls   int
	closed  bool
}

func newFakeLibrary(missing string) *fakeLibrary {
	lib := &fakeLibrary{missing: missing, symbols: map[string]uintptr{}}
	addr := uintptr(1)
	for _, bop := range op.BinaryOps {
		for _, integer := range []bool{true, false} {
			lib.symbols[SymbolName(bop, integer)] = addr
			addr++
		}
	}
	return lib
}

func (l *fakeLibrary) lookup(name string) (uintptr, error) {
	if name == l.missing {
		return 0, errors.New("undefined symbol: " + name)
	}
	return l.symbols[name], nil
}

// Symbol addresses are handed out in (bop, integer) order starting at 1, so
// the operation can be recovered from the address.
func (l *fakeLibrary) intFunc(sym uintptr) func(int32, int32) int32 {
	l.bound++
	bop := op.BinaryOpType((sym - 1) / 2)
	return func(a, b int32) int32 {
		l.calls++
		r, _ := NewSoftware().Int(bop, a, b)
		return r
	}
}

func (l *fakeLibrary) floatFunc(sym uintptr) func(float32, float32) float32 {
	l.bound++
	bop := op.BinaryOpType((sym - 2) / 2)
	return func(a, b float32) float32 {
		r, _ := NewSoftware().Float(bop, a, b)
		return r
	}
}

func (l *fakeLibrary) close() error {
	l.closed = true
	return nil
}

func TestSymbolName(t *testing.T) {
	require.Equal(t, "i_add", SymbolName(op.Addition, true))
	require.Equal(t, "f_div", SymbolName(op.Division, false))
	require.Equal(t, "i_mul", SymbolName(op.Multiplication, true))
}

func TestNativeResolvesAllSymbols(t *testing.T) {
	lib := newFakeLibrary("")
	n, err := newNative("libfake.so", lib)
	require.NoError(t, err)
	require.Equal(t, 8, lib.bound)
	require.Equal(t, "libfake.so", n.Path())
	require.Equal(t, KindNative, n.Kind())

	got, err := n.Int(op.Subtraction, 10, 4)
	require.NoError(t, err)
	require.Equal(t, int32(6), got)

	f, err := n.Float(op.Multiplication, 1.5, 4)
	require.NoError(t, err)
	require.Equal(t, float32(6), f)
}

func TestNativeMissingSymbolFailsBeforeBinding(t *testing.T) {
	lib := newFakeLibrary("f_div")
	_, err := newNative("libfake.so", lib)
	require.ErrorIs(t, err, errz.ErrResolution)
	require.Contains(t, err.Error(), `"f_div"`)
	require.Equal(t, 0, lib.bound)
}

func TestNativeIntDivisionByZero(t *testing.T) {
	n, err := newNative("libfake.so", newFakeLibrary(""))
	require.NoError(t, err)
	_, err = n.Int(op.Division, 5, 0)
	require.ErrorIs(t, err, errz.ErrArithmetic)
}

func TestNativeClose(t *testing.T) {
	lib := newFakeLibrary("")
	n, err := newNative("libfake.so", lib)
	require.NoError(t, err)
	require.NoError(t, n.Close())
	require.True(t, lib.closed)
	require.NoError(t, n.Close())

	_, err = n.Int(op.Addition, 1, 2)
	require.ErrorIs(t, err, errz.ErrPrecondition)
}

func TestOpenNativeMissingLibrary(t *testing.T) {
	_, err := OpenNative(filepath.Join(t.TempDir(), "no-such-lib.so"))
	require.ErrorIs(t, err, errz.ErrResolution)
}

// buildCPUOps compiles testdata/cpu_ops.c into a shared library, skipping
// the test when no C compiler is available.
func buildCPUOps(t *testing.T) string {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skipf("native libraries not supported on %s", runtime.GOOS)
	}
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}
	out := filepath.Join(t.TempDir(), "cpu_ops.so")
	cmd := exec.Command(cc, "-shared", "-fPIC", "-O1", "-o", out, filepath.Join("testdata", "cpu_ops.c"))
	if msg, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot build cpu_ops.so: %v: %s", err, msg)
	}
	return out
}

func TestNativeLibraryParity(t *testing.T) {
	path := buildCPUOps(t)
	n, err := OpenNative(path)
	require.NoError(t, err)
	defer n.Close()

	sw := NewSoftware()
	operands := [][2]int32{{500, 7}, {math.MinInt32, -1}, {-9, 4}}
	for _, bop := range op.BinaryOps {
		for _, pair := range operands {
			want, err := sw.Int(bop, pair[0], pair[1])
			require.NoError(t, err)
			got, err := n.Int(bop, pair[0], pair[1])
			require.NoError(t, err)
			require.Equal(t, want, got, "i_%s(%d, %d)", bop.Name(), pair[0], pair[1])
		}

		wantF, err := sw.Float(bop, 2.5, 0.5)
		require.NoError(t, err)
		gotF, err := n.Float(bop, 2.5, 0.5)
		require.NoError(t, err)
		require.Equal(t, wantF, gotF, "f_%s", bop.Name())
	}
}

func TestNativeDivisionOverflowWraps(t *testing.T) {
	lib := newFakeLibrary("")
	n, err := newNative("libfake.so", lib)
	require.NoError(t, err)

	got, err := n.Int(op.Division, math.MinInt32, -1)
	require.NoError(t, err)
	require.Equal(t, int32(math.MinInt32), got)
	require.Equal(t, 0, lib.calls, "overflowing division must not reach the library")

	got, err = n.Int(op.Division, math.MinInt32, 1)
	require.NoError(t, err)
	require.Equal(t, int32(math.MinInt32), got)
	require.Equal(t, 1, lib.calls)
}
