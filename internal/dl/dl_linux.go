//go:build linux

package dl

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// glibc RTLD flag values. purego does not export these portably across
// platforms, so this loader defines them itself, the same way the
// corpus's c4pt0r/pfs plugin loader resolves its own per-platform dlopen
// flags before calling purego.Dlopen.
const (
	rtldNow    = 0x00002
	rtldGlobal = 0x00100
)

// Open opens path with symbols resolved immediately and made globally
// visible, so that a plugin loaded later can resolve symbols exported by
// one loaded earlier. This mirrors dlopen(path, RTLD_NOW|RTLD_GLOBAL).
func Open(path string) (Handle, error) {
	h, err := purego.Dlopen(path, rtldNow|rtldGlobal)
	if err != nil {
		return 0, errors.Wrapf(err, "dl: open %q", path)
	}
	return Handle(h), nil
}

// Close releases a handle previously returned by Open. Closing the zero
// Handle is a no-op, matching the original's DLCLOSE macro which guards
// against a NULL dlhandle.
func Close(h Handle) error {
	if h == 0 {
		return nil
	}
	if err := purego.Dlclose(uintptr(h)); err != nil {
		return errors.Wrap(err, "dl: close")
	}
	return nil
}

// Sym resolves name within h and returns its runtime address.
func Sym(h Handle, name string) (uintptr, error) {
	addr, err := purego.Dlsym(uintptr(h), name)
	if err != nil {
		return 0, errors.Wrapf(err, "dl: lookup symbol %q", name)
	}
	return addr, nil
}
