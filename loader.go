package cpf

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"

	"github.com/cpfhost/cpf/internal/abi"
	"github.com/cpfhost/cpf/internal/digest"
	"github.com/cpfhost/cpf/internal/dl"
	"github.com/cpfhost/cpf/internal/elfsym"
)

// ctorDtorFunc is the signature a plugin's constructor/destructor hook is
// called with: the plugin's own load base address, which is stable for
// the lifetime of its record and serves as the plugin's self-reference
// across the host/plugin boundary.
type ctorDtorFunc func(uintptr)

// initCtxFunc is the signature of a plugin's mandatory context
// initializer: no arguments, returns a pointer to its published context.
type initCtxFunc func() uintptr

// load implements the per-plugin loader: open, validate, walk the
// dynamic symbol table, extract lifecycle hooks and application
// functions, invoke the context initializer, and compute the file
// digest. p.Path must already be populated.
func load(p *Plugin, opts options) error {
	handle, err := dl.Open(p.Path)
	if err != nil {
		return errors.Wrapf(err, "load %q", p.Path)
	}

	info, syms, err := elfsym.Load(p.Path, opts.machine)
	if err != nil {
		_ = dl.Close(handle)
		return errors.Wrapf(err, "load %q", p.Path)
	}
	_ = info

	p.handle = handle
	p.Funcs = nil

	var (
		initCtxOffset uint64
		haveInitCtx   bool
	)

	for _, s := range syms {
		switch s.Name {
		case opts.reserved.initCtx:
			addr, err := dl.Sym(handle, s.Name)
			if err != nil {
				_ = dl.Close(handle)
				return errors.Wrapf(err, "load %q: resolving %s", p.Path, s.Name)
			}
			p.initCtxAddr = addr
			initCtxOffset = s.Value
			haveInitCtx = true
		case opts.reserved.ctor:
			addr, err := dl.Sym(handle, s.Name)
			if err != nil {
				_ = dl.Close(handle)
				return errors.Wrapf(err, "load %q: resolving %s", p.Path, s.Name)
			}
			p.ctorAddr = addr
		case opts.reserved.dtor:
			addr, err := dl.Sym(handle, s.Name)
			if err != nil {
				_ = dl.Close(handle)
				return errors.Wrapf(err, "load %q: resolving %s", p.Path, s.Name)
			}
			p.dtorAddr = addr
		default:
			p.Funcs = append(p.Funcs, Function{
				Offset: s.Value,
				Name:   s.Name,
			})
		}
	}

	if !haveInitCtx {
		_ = dl.Close(handle)
		return errors.Errorf("load %q: missing mandatory %s symbol", p.Path, opts.reserved.initCtx)
	}
	if len(p.Funcs) == 0 {
		_ = dl.Close(handle)
		return errors.Errorf("load %q: plugin exports no application functions", p.Path)
	}

	// The load base is the init-context symbol's resolved runtime address
	// minus its file offset — the file offset is known precisely because
	// it is a mandatory, always-present symbol, which makes it a reliable
	// anchor without needing a link-map query.
	p.BaseAddr = p.initCtxAddr - uintptr(initCtxOffset)
	for i := range p.Funcs {
		p.Funcs[i].Addr = p.BaseAddr + uintptr(p.Funcs[i].Offset)
	}

	var initCtx initCtxFunc
	purego.RegisterFunc(&initCtx, p.initCtxAddr)
	ctxAddr := initCtx()

	rawCtx, err := abi.ReadContext(ctxAddr)
	if err != nil {
		_ = dl.Close(handle)
		return errors.Wrapf(err, "load %q", p.Path)
	}

	version := rawCtx.Version
	if version == "" {
		version = NotDefined
	}
	deps := make([]DependencyEntry, len(rawCtx.Deps))
	for i, d := range rawCtx.Deps {
		deps[i] = DependencyEntry{Name: d.Name}
	}
	p.Context = &Context{Version: version, Deps: deps}

	sum, err := digest.Of(p.Path)
	if err != nil {
		_ = dl.Close(handle)
		return errors.Wrapf(err, "load %q", p.Path)
	}
	p.Digest = sum

	return nil
}

// invokeCtorDtor calls hook (a constructor or destructor address) with
// p's base address, if hook is non-zero.
func invokeCtorDtor(hook uintptr, p *Plugin) {
	if hook == 0 {
		return
	}
	var fn ctorDtorFunc
	purego.RegisterFunc(&fn, hook)
	fn(p.BaseAddr)
}

// release invokes p's destructor (if present and callDestructor is set),
// closes its dynamic-linker handle, and clears its handle, function table
// and context, so a repeated release (e.g. after a reconciliation transfer
// nulled the handle) closes nothing further. The destructor address is
// not cleared: a repeated release with callDestructor set runs it again.
func release(p *Plugin, callDestructor bool) {
	if p == nil {
		return
	}
	if callDestructor {
		invokeCtorDtor(p.dtorAddr, p)
	}
	if err := dl.Close(p.handle); err != nil {
		defaultLogger.WithError(err).WithField("plugin", p.Name).Error("closing plugin handle")
	}
	p.handle = 0
	p.Funcs = nil
	p.Context = nil
}
