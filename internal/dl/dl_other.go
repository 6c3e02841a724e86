//go:build !linux

package dl

// Open, Close and Sym are stubs outside linux: the framework's ELF
// symbol-table assumptions (§1 of its design) are POSIX/ELF specific and
// this build has no dlopen binding wired up for its host platform.

func Open(path string) (Handle, error) {
	return 0, errUnsupported
}

func Close(h Handle) error {
	return nil
}

func Sym(h Handle, name string) (uintptr, error) {
	return 0, errUnsupported
}
