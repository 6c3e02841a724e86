// Package dl wraps the platform dynamic linker operations the loader
// needs: opening a shared object with symbols resolved eagerly and made
// globally visible, looking up a symbol's runtime address, and closing
// the handle again. It is backed by github.com/ebitengine/purego, which
// provides dlopen/dlsym/dlclose without requiring cgo.
package dl

import "github.com/pkg/errors"

// Handle identifies an open shared object.
type Handle uintptr

// errUnsupported is returned by every operation on platforms this package
// has no dlopen binding for.
var errUnsupported = errors.New("dl: dynamic loading is not supported on this platform")
