package cpf

import "github.com/pkg/errors"

// linkDependencies resolves every plugin's declared dependency list
// against the rest of fw's plugins: for each named dependency it finds
// the matching plugin by logical name and binds its function table. A
// named dependency that cannot be found, or that names the plugin
// itself, is a fatal condition.
func linkDependencies(fw *Framework) error {
	byName := make(map[string]*Plugin, len(fw.Plugins))
	for _, p := range fw.Plugins {
		byName[p.Name] = p
	}

	for _, p := range fw.Plugins {
		for i := range p.Context.Deps {
			dep := &p.Context.Deps[i]
			q, ok := byName[dep.Name]
			if !ok {
				return errors.Errorf(
					"dependency check failed: %q not found, required by %q", dep.Name, p.Name)
			}
			if q == p {
				return errors.Errorf(
					"dependency check failed: plugin %q declares a dependency on itself", p.Name)
			}
			dep.Funcs = q.Funcs
		}
	}
	return nil
}

// GetExternLibFuncByDep resolves funcName within the function table of
// the dependency named depName in deps. It is the host-side counterpart
// of the dependency-access helper a plugin uses to call into a
// dependency it declared: a plugin scans its own dependency list for
// depName, then scans that dependency's function table for funcName.
func GetExternLibFuncByDep(deps []DependencyEntry, depName, funcName string) (uintptr, error) {
	for _, d := range deps {
		if d.Name != depName {
			continue
		}
		for _, f := range d.Funcs {
			if f.Name != "" && f.Name == funcName {
				return f.Addr, nil
			}
		}
		return 0, errors.Errorf("function %q not found in dependency %q", funcName, depName)
	}
	return 0, errors.Errorf("dependency %q not declared", depName)
}
