// Package elfsym extracts the defined function symbols of an ELF shared
// object from its dynamic symbol table. It replaces the C original's
// manual walk of the DT_SYMTAB/DT_STRTAB/DT_SYMENT dynamic-section tags
// with debug/elf's own dynamic symbol table parser, which the rest of the
// retrieved corpus also reaches for when it needs to introspect ELF
// binaries (see zboralski/galago's emulator and namhyung/elftree).
package elfsym

import (
	"debug/elf"

	"github.com/pkg/errors"
)

// Symbol is one defined function symbol from a plugin's dynamic symbol
// table: its name (possibly empty, mirroring a null string-table entry)
// and its value, which is an offset relative to the module's load base.
type Symbol struct {
	Name  string
	Value uint64
}

// Info describes the validated ELF properties of a loaded plugin image.
type Info struct {
	Class   elf.Class
	Machine elf.Machine
	Type    elf.Type
}

// Load opens the ELF file at path, validates it is a dynamically linked
// shared object for hostMachine, and returns its header info together
// with every defined function symbol (STT_FUNC, non-zero value) in its
// dynamic symbol table.
func Load(path string, hostMachine elf.Machine) (Info, []Symbol, error) {
	f, err := elf.Open(path)
	if err != nil {
		// elf.Open already validates the ELF magic number; any failure
		// here (including a non-ELF file) surfaces as an open error.
		return Info{}, nil, errors.Wrapf(err, "elfsym: open %q", path)
	}
	defer f.Close()

	info := Info{Class: f.Class, Machine: f.Machine, Type: f.Type}
	if err := Validate(info, hostMachine); err != nil {
		return Info{}, nil, errors.Wrapf(err, "elfsym: %q", path)
	}

	dynsyms, err := f.DynamicSymbols()
	if err != nil {
		return Info{}, nil, errors.Wrapf(err, "elfsym: reading dynamic symbols of %q", path)
	}

	return info, DefinedFunctions(dynsyms), nil
}

// Validate checks that info describes a shared object dynamically linked
// for hostMachine. It is separated from Load so the classification logic
// is testable without a real ELF file on disk.
func Validate(info Info, hostMachine elf.Machine) error {
	if info.Machine != hostMachine {
		return errors.Errorf("architecture mismatch: got %s, want %s", info.Machine, hostMachine)
	}
	if info.Type != elf.ET_DYN {
		return errors.Errorf("not a shared object (ET_DYN): got %s", info.Type)
	}
	return nil
}

// DefinedFunctions filters a raw dynamic symbol table down to the defined
// function symbols the loader cares about: type STT_FUNC and a non-zero
// value (an undefined/imported function has value 0 and is not one of
// this module's own exports).
func DefinedFunctions(dynsyms []elf.Symbol) []Symbol {
	out := make([]Symbol, 0, len(dynsyms))
	for _, s := range dynsyms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		if s.Value == 0 {
			continue
		}
		out = append(out, Symbol{Name: s.Name, Value: s.Value})
	}
	return out
}
