package cpf

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/cpfhost/cpf/internal/discover"
)

// maxPluginPathLen mirrors MAX_PLUGIN_PATH_SIZE from the original C
// implementation: a resolved root path longer than this is a fatal
// configuration error rather than a silently truncated one.
const maxPluginPathLen = 2048

// defaultPluginDir is appended to the current working directory when the
// caller passes an empty root to Init/ReloadInit.
const defaultPluginDir = "plugins"

// Init discovers, loads, links and activates every plugin found under
// root, returning the ready Framework. An empty root resolves to
// cwd+"/plugins"; an absolute root is used verbatim; any other root is
// joined to the current working directory. Every present constructor
// hook is invoked, in plugin-list order, before Init returns.
func Init(root string, opts ...Option) (*Framework, error) {
	fw, err := newFramework(root, opts...)
	if err != nil {
		return nil, err
	}
	for _, p := range fw.Plugins {
		invokeCtorDtor(p.ctorAddr, p)
	}
	return fw, nil
}

// ReloadInit is identical to Init except that it does not invoke any
// constructor hooks — the reconciler decides which of this freshly
// loaded set actually need construction.
func ReloadInit(root string, opts ...Option) (*Framework, error) {
	return newFramework(root, opts...)
}

// MustInit is Init, except that it logs a fatal error and terminates the
// process instead of returning an error. It exists for host applications
// that want the same "any init failure is unrecoverable" behavior the
// core's error-handling design expects of a fatal condition.
func MustInit(root string, opts ...Option) *Framework {
	fw, err := Init(root, opts...)
	if err != nil {
		defaultLogger.WithError(err).Fatal("cpf: init failed")
	}
	return fw
}

// newFramework resolves root, discovers candidates, loads every plugin
// and links their dependencies, but does not invoke any lifecycle hook
// other than the mandatory context initializer (already run by load).
func newFramework(root string, opts ...Option) (*Framework, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return loadFramework(root, o)
}

// loadFramework is newFramework's core, parameterized over an
// already-resolved options value so the reconciler can build a fresh
// framework under the same configuration as the live one without
// re-deriving a list of functional options.
func loadFramework(root string, o options) (*Framework, error) {
	resolved, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	candidates, err := discover.Enumerate(resolved, o.extension)
	if err != nil {
		return nil, errors.Wrap(err, "init")
	}

	fw := &Framework{Root: resolved, opts: o}
	fw.Plugins = make([]*Plugin, 0, len(candidates))
	for _, c := range candidates {
		p := &Plugin{Path: c.FullPath, Name: c.Name}
		if err := load(p, o); err != nil {
			return nil, errors.Wrap(err, "init")
		}
		fw.Plugins = append(fw.Plugins, p)
	}

	sortPluginsByPath(fw.Plugins)

	if err := linkDependencies(fw); err != nil {
		return nil, errors.Wrap(err, "init")
	}

	return fw, nil
}

// sortPluginsByPath enforces the framework's total, deterministic
// ordering invariant: the plugin list is always sorted by full path.
func sortPluginsByPath(plugins []*Plugin) {
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Path < plugins[j].Path })
}

// resolveRoot implements the root-directory rules: an empty root becomes
// cwd+"/plugins"; an absolute root is used verbatim; anything else is
// joined to cwd. A resolved path longer than maxPluginPathLen is a fatal
// error.
func resolveRoot(root string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving plugin root")
	}

	var resolved string
	switch {
	case root == "":
		resolved = filepath.Join(cwd, defaultPluginDir)
	case filepath.IsAbs(root):
		resolved = root
	default:
		resolved = filepath.Join(cwd, root)
	}

	if len(resolved) > maxPluginPathLen {
		return "", errors.Errorf(
			"plugin root path exceeds maximum length of %d bytes", maxPluginPathLen)
	}
	return resolved, nil
}

// PrintLoaded writes one line per loaded plugin to fw's logger (ordinal,
// logical name, path, version, base address, digest, dependency names)
// followed by one line per exported function (name — or the sentinel
// NotDefined — offset and address).
func PrintLoaded(fw *Framework) {
	log := fw.logger()
	for i, p := range fw.Plugins {
		depNames := make([]string, len(p.Context.Deps))
		for j, d := range p.Context.Deps {
			depNames[j] = d.Name
		}
		log.WithFields(map[string]any{
			"ordinal": i,
			"name":    p.Name,
			"path":    p.Path,
			"version": p.Context.Version,
			"base":    p.BaseAddr,
			"digest":  hex.EncodeToString(p.Digest[:]),
			"deps":    depNames,
		}).Info("loaded plugin")

		for _, f := range p.Funcs {
			name := f.Name
			if name == "" {
				name = NotDefined
			}
			log.WithFields(map[string]any{
				"plugin": p.Name,
				"name":   name,
				"offset": f.Offset,
				"addr":   f.Addr,
			}).Info("  function")
		}
	}
}

// GetFuncAddr linear-searches fw for pluginName's function funcName,
// returning its absolute address. It returns 0 and logs an error if fw
// is empty, either name is empty, the plugin is not found, or the
// function is not found in that plugin.
func (fw *Framework) GetFuncAddr(pluginName, funcName string) uintptr {
	f := fw.resolveFunc(pluginName, funcName)
	return f.Addr
}

// GetFuncOffset is GetFuncAddr's offset-returning counterpart. 0 means
// not found.
func (fw *Framework) GetFuncOffset(pluginName, funcName string) uint64 {
	f := fw.resolveFunc(pluginName, funcName)
	return f.Offset
}

func (fw *Framework) resolveFunc(pluginName, funcName string) Function {
	log := fw.logger()
	if len(fw.Plugins) == 0 || pluginName == "" || funcName == "" {
		log.Errorf("get func: empty framework or empty name (plugin=%q func=%q)", pluginName, funcName)
		return Function{}
	}
	p := fw.pluginByName(pluginName)
	if p == nil {
		log.Errorf("get func: plugin %q not found", pluginName)
		return Function{}
	}
	f := p.funcByName(funcName)
	if f.IsZero() {
		log.Errorf("get func: function %q not found in plugin %q", funcName, pluginName)
		return Function{}
	}
	return f
}

// CallByAddr invokes the function at addr under the given prototype,
// forwarding args. A null address is a recoverable error.
func (fw *Framework) CallByAddr(addr uintptr, proto Prototype, args ...any) (any, error) {
	return callByAddr(fw.logger(), addr, proto, args...)
}

// CallByName resolves pluginName/funcName to an address and dispatches
// through CallByAddr. Plugin-not-found and function-not-found are
// recoverable: the resulting address is 0, which CallByAddr reports as
// an error, so the call returns a nil result and a non-nil error.
func (fw *Framework) CallByName(pluginName, funcName string, proto Prototype, args ...any) (any, error) {
	addr := fw.GetFuncAddr(pluginName, funcName)
	return fw.CallByAddr(addr, proto, args...)
}

// CallByOffset resolves pluginName's base address plus off to an
// absolute address and dispatches through CallByAddr. An offset of 0 is
// a recoverable "not found" condition per the framework contract.
func (fw *Framework) CallByOffset(pluginName string, off uint64, proto Prototype, args ...any) (any, error) {
	log := fw.logger()
	if off == 0 {
		log.Errorf("call by offset: offset 0 for plugin %q", pluginName)
		return nil, errors.New("dispatch: offset is 0")
	}
	p := fw.pluginByName(pluginName)
	if p == nil {
		log.Errorf("call by offset: plugin %q not found", pluginName)
		return fw.CallByAddr(0, proto, args...)
	}
	return fw.CallByAddr(p.BaseAddr+uintptr(off), proto, args...)
}

// Unload invokes every plugin's destructor, closes every handle, and
// drops the plugin list. The Framework value itself remains usable — a
// caller may Init/ReloadInit into the same handle again.
func (fw *Framework) Unload() {
	for _, p := range fw.Plugins {
		release(p, true)
	}
	fw.Plugins = nil
}

// Free is Unload followed by discarding fw. Present for symmetry with
// the host/plugin contract's explicit free operation; callers may
// simply drop their last reference to fw instead.
func (fw *Framework) Free() {
	fw.Unload()
}
