// Package abi decodes the C ABI structures a plugin publishes across the
// host/plugin boundary. Because a plugin is dlopen'd with RTLD_GLOBAL
// into this process's own address space, the pointers its context
// initializer returns are directly addressable host memory; this package
// overlays Go structs on that memory with unsafe.Pointer, the same
// technique cgo-free dlopen bindings in the ecosystem rely on to read
// data across a C function boundary.
package abi

import (
	"bytes"
	"unsafe"

	"github.com/pkg/errors"
)

// MaxVersionLen is the fixed size of a plugin_ctx_t's version field.
const MaxVersionLen = 64

// cDep mirrors the C deps_t struct layout: a dependency name pointer and
// a pointer to that dependency's resolved function table (unused on the
// read side — the host keeps its own resolved copy, see DependencyEntry
// in the root package).
type cDep struct {
	namePtr  uintptr
	funcsPtr uintptr
}

// cContext mirrors the C plugin_ctx_t struct layout: a fixed-size version
// string and a pointer to a sentinel-terminated deps_t array.
type cContext struct {
	version [MaxVersionLen]byte
	depsPtr uintptr
}

// Dependency is the decoded form of one deps_t entry.
type Dependency struct {
	Name string
}

// Context is the decoded form of a plugin's published plugin_ctx_t.
type Context struct {
	Version string
	Deps    []Dependency
}

// ReadCString reads a NUL-terminated byte string starting at addr. It
// returns "" for a null address, mirroring a plugin's optional (absent)
// function name.
func ReadCString(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	var buf []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(addr + i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// ReadDeps walks a sentinel-terminated deps_t array starting at addr,
// stopping at the first entry whose name pointer is null.
func ReadDeps(addr uintptr) []Dependency {
	if addr == 0 {
		return nil
	}
	var out []Dependency
	entrySize := unsafe.Sizeof(cDep{})
	for i := uintptr(0); ; i++ {
		d := (*cDep)(unsafe.Pointer(addr + i*entrySize))
		if d.namePtr == 0 {
			break
		}
		out = append(out, Dependency{Name: ReadCString(d.namePtr)})
	}
	return out
}

// ReadContext decodes the plugin_ctx_t at addr. It fails if addr is null
// (the plugin's context initializer returned nothing) or if the decoded
// context's dependency list pointer is null — both are fatal conditions
// for the loader per the framework's contract.
func ReadContext(addr uintptr) (*Context, error) {
	if addr == 0 {
		return nil, errors.New("abi: context initializer returned a null context")
	}
	c := (*cContext)(unsafe.Pointer(addr))
	if c.depsPtr == 0 {
		return nil, errors.New("abi: context has a null dependency list")
	}
	version := string(bytes.TrimRight(c.version[:], "\x00"))
	return &Context{
		Version: version,
		Deps:    ReadDeps(c.depsPtr),
	}, nil
}
