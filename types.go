package cpf

import (
	"github.com/cpfhost/cpf/internal/dl"
)

// NotDefined is substituted for a plugin's version when its context
// publishes an empty one.
const NotDefined = "<NOT DEFINED>"

// Function is one exported defined function of a plugin: its absolute
// in-memory address, its offset from the plugin's load base, and its
// optional name (empty when the symbol has no string-table entry).
type Function struct {
	Addr   uintptr
	Offset uint64
	Name   string
}

// IsZero reports whether f is the zero-value "not found" sentinel
// returned by lookups that fail to find a match.
func (f Function) IsZero() bool {
	return f == Function{}
}

// DependencyEntry names another plugin a plugin depends on. Funcs is
// populated by the dependency linker once the named plugin has been
// located in the same framework.
type DependencyEntry struct {
	Name  string
	Funcs []Function
}

// Context is a plugin's self-description, returned by its context
// initializer (CPF_init_ctx).
type Context struct {
	Version string
	Deps    []DependencyEntry
}

// Plugin is one loaded shared object.
type Plugin struct {
	Path string // full path on disk
	Name string // path relative to the framework root, extension stripped

	handle   dl.Handle
	BaseAddr uintptr
	Funcs    []Function
	Context  *Context

	initCtxAddr uintptr
	ctorAddr    uintptr
	dtorAddr    uintptr

	Digest [32]byte
}

// Framework is the owning aggregate: the root directory and the ordered
// set of loaded plugins.
type Framework struct {
	Root    string
	Plugins []*Plugin

	opts options
}

// Count returns the number of loaded plugins.
func (fw *Framework) Count() int {
	return len(fw.Plugins)
}

// funcByName linear-searches p's function table for name, returning the
// zero Function if not found.
func (p *Plugin) funcByName(name string) Function {
	for _, f := range p.Funcs {
		if f.Name != "" && f.Name == name {
			return f
		}
	}
	return Function{}
}

// pluginByName linear-searches fw's plugin list for a plugin with the
// given logical name.
func (fw *Framework) pluginByName(name string) *Plugin {
	for _, p := range fw.Plugins {
		if p.Name == name {
			return p
		}
	}
	return nil
}
