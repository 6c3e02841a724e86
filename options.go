package cpf

import (
	"debug/elf"

	"github.com/sirupsen/logrus"
)

// reservedSymbols names the three C-ABI lifecycle hook symbols a plugin
// may export.
type reservedSymbols struct {
	initCtx string
	ctor    string
	dtor    string
}

// options holds the resolved configuration for a Framework, filled in by
// defaultOptions and any Option the caller passes to Init.
type options struct {
	extension string
	reserved  reservedSymbols
	machine   elf.Machine
	logger    *logrus.Logger
}

func defaultOptions() options {
	return options{
		extension: ".so",
		reserved: reservedSymbols{
			initCtx: "CPF_init_ctx",
			ctor:    "CPF_constructor",
			dtor:    "CPF_destructor",
		},
		machine: elf.EM_X86_64,
		logger:  defaultLogger,
	}
}

// Option configures a Framework at construction time.
type Option func(*options)

// WithPluginExtension overrides the default ".so" shared-library
// extension plugin files must contain.
func WithPluginExtension(ext string) Option {
	return func(o *options) { o.extension = ext }
}

// WithReservedSymbols overrides the three reserved lifecycle hook symbol
// names a plugin is expected to export. All three must be non-empty.
func WithReservedSymbols(initCtx, ctor, dtor string) Option {
	return func(o *options) {
		if initCtx == "" || ctor == "" || dtor == "" {
			return
		}
		o.reserved = reservedSymbols{initCtx: initCtx, ctor: ctor, dtor: dtor}
	}
}

// WithHostMachine overrides the ELF machine type plugins are validated
// against. It defaults to elf.EM_X86_64, parameterized so callers can
// target other ELF machines instead of hard-coding one architecture.
func WithHostMachine(m elf.Machine) Option {
	return func(o *options) { o.machine = m }
}

// WithLogger overrides the package-level default logger for one
// Framework instance.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}
