package cpf

import "testing"

// newLinkedFixture builds two plugins where lib1 depends on lib2,
// without touching the dynamic linker: the pieces linkDependencies
// consumes (Context.Deps, Funcs) are plain Go data.
func newLinkedFixture() *Framework {
	lib2 := &Plugin{
		Name:    "lib2",
		Funcs:   []Function{{Name: "do_operation", Addr: 0x2000, Offset: 0x10}},
		Context: &Context{Version: "1.0", Deps: nil},
	}
	lib1 := &Plugin{
		Name:  "lib1",
		Funcs: []Function{{Name: "do_operation", Addr: 0x1000, Offset: 0x10}},
		Context: &Context{
			Version: "1.0",
			Deps:    []DependencyEntry{{Name: "lib2"}},
		},
	}
	return &Framework{Plugins: []*Plugin{lib1, lib2}}
}

func TestLinkDependenciesBindsFunctionTable(t *testing.T) {
	fw := newLinkedFixture()
	if err := linkDependencies(fw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps := fw.Plugins[0].Context.Deps
	if len(deps) != 1 || len(deps[0].Funcs) != 1 || deps[0].Funcs[0].Addr != 0x2000 {
		t.Fatalf("lib1's dependency on lib2 was not bound: %+v", deps)
	}
}

func TestLinkDependenciesFailsOnMissingDependency(t *testing.T) {
	fw := &Framework{Plugins: []*Plugin{
		{Name: "lib1", Context: &Context{Deps: []DependencyEntry{{Name: "ghost"}}}},
	}}
	if err := linkDependencies(fw); err == nil {
		t.Fatal("expected an error for an unresolved dependency")
	}
}

func TestLinkDependenciesFailsOnSelfDependency(t *testing.T) {
	p := &Plugin{Name: "lib1"}
	p.Context = &Context{Deps: []DependencyEntry{{Name: "lib1"}}}
	fw := &Framework{Plugins: []*Plugin{p}}
	if err := linkDependencies(fw); err == nil {
		t.Fatal("expected a self-dependency to be rejected")
	}
}

func TestGetExternLibFuncByDepResolvesByName(t *testing.T) {
	deps := []DependencyEntry{
		{Name: "lib2", Funcs: []Function{{Name: "do_operation", Addr: 0x2000}}},
	}
	addr, err := GetExternLibFuncByDep(deps, "lib2", "do_operation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != 0x2000 {
		t.Fatalf("expected 0x2000, got %#x", addr)
	}
}

func TestGetExternLibFuncByDepFailsOnMissingDep(t *testing.T) {
	if _, err := GetExternLibFuncByDep(nil, "lib2", "do_operation"); err == nil {
		t.Fatal("expected an error for an undeclared dependency")
	}
}

func TestGetExternLibFuncByDepFailsOnMissingFunc(t *testing.T) {
	deps := []DependencyEntry{{Name: "lib2"}}
	if _, err := GetExternLibFuncByDep(deps, "lib2", "do_operation"); err == nil {
		t.Fatal("expected an error for a missing function")
	}
}
