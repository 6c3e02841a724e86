package abi_test

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/cpfhost/cpf/internal/abi"
)

// cString allocates a Go-owned, NUL-terminated byte buffer and returns its
// address as a uintptr. The buffer is kept alive for the duration of the
// test via runtime.KeepAlive at each call site that dereferences it.
func cString(s string) (uintptr, []byte) {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return uintptr(unsafe.Pointer(&buf[0])), buf
}

func TestReadCStringEmptyForNull(t *testing.T) {
	if got := abi.ReadCString(0); got != "" {
		t.Fatalf("expected empty string for null pointer, got %q", got)
	}
}

func TestReadCStringReadsUntilNUL(t *testing.T) {
	addr, buf := cString("do_operation")
	got := abi.ReadCString(addr)
	runtime.KeepAlive(buf)
	if got != "do_operation" {
		t.Fatalf("got %q, want %q", got, "do_operation")
	}
}

type cDepLayout struct {
	namePtr  uintptr
	funcsPtr uintptr
}

func TestReadDepsStopsAtSentinel(t *testing.T) {
	nameA, bufA := cString("lib2")
	nameB, bufB := cString("lib3")

	deps := []cDepLayout{
		{namePtr: nameA},
		{namePtr: nameB},
		{namePtr: 0}, // sentinel
	}
	addr := uintptr(unsafe.Pointer(&deps[0]))

	got := abi.ReadDeps(addr)
	runtime.KeepAlive(bufA)
	runtime.KeepAlive(bufB)
	runtime.KeepAlive(deps)

	if len(got) != 2 {
		t.Fatalf("expected 2 dependencies before the sentinel, got %d: %+v", len(got), got)
	}
	if got[0].Name != "lib2" || got[1].Name != "lib3" {
		t.Fatalf("unexpected dependency names: %+v", got)
	}
}

func TestReadDepsEmptyForNullAddr(t *testing.T) {
	if got := abi.ReadDeps(0); got != nil {
		t.Fatalf("expected nil for a null deps pointer, got %+v", got)
	}
}

type cContextLayout struct {
	version [abi.MaxVersionLen]byte
	depsPtr uintptr
}

func TestReadContextDecodesVersionAndDeps(t *testing.T) {
	nameA, bufA := cString("lib2")
	deps := []cDepLayout{
		{namePtr: nameA},
		{namePtr: 0},
	}
	depsAddr := uintptr(unsafe.Pointer(&deps[0]))

	var ctx cContextLayout
	copy(ctx.version[:], "1.2.3")
	ctx.depsPtr = depsAddr

	got, err := abi.ReadContext(uintptr(unsafe.Pointer(&ctx)))
	runtime.KeepAlive(bufA)
	runtime.KeepAlive(deps)
	runtime.KeepAlive(ctx)
	if err != nil {
		t.Fatalf("ReadContext: %v", err)
	}
	if got.Version != "1.2.3" {
		t.Fatalf("got version %q, want %q", got.Version, "1.2.3")
	}
	if len(got.Deps) != 1 || got.Deps[0].Name != "lib2" {
		t.Fatalf("unexpected deps: %+v", got.Deps)
	}
}

func TestReadContextRejectsNullPointer(t *testing.T) {
	if _, err := abi.ReadContext(0); err == nil {
		t.Fatal("expected an error for a null context pointer")
	}
}

func TestReadContextRejectsNullDeps(t *testing.T) {
	var ctx cContextLayout // depsPtr left zero
	_, err := abi.ReadContext(uintptr(unsafe.Pointer(&ctx)))
	runtime.KeepAlive(ctx)
	if err == nil {
		t.Fatal("expected an error for a null dependency list")
	}
}
