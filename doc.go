/*
Package cpf is a dynamic plugin framework for POSIX/ELF systems. It
discovers shared objects under a root directory, loads them into the host
process, enumerates their exported functions by walking the ELF dynamic
symbol table, resolves a dependency graph between plugins, invokes each
plugin's lifecycle hooks, and dispatches calls into plugin functions by
name, by absolute address, or by module-relative offset.

	fw, err := cpf.Init("")
	if err != nil {
		log.Fatal(err)
	}
	defer fw.Free()

	ret, err := fw.CallByName("lib1", "do_operation", cpf.INTINT, 5)

A plugin is a shared object exporting three reserved C-ABI symbols:

	CPF_init_ctx    required, returns the plugin's published context
	CPF_constructor optional, invoked once after load/reconciliation
	CPF_destructor  optional, invoked once before unload/replacement

and any number of application functions the host resolves by name, by
address, or by offset from the plugin's load base.

# Hot reload

Reload(fw, displayReport) re-scans the root directory and reconciles the in-memory plugin
set against what is now on disk: unchanged plugins are left untouched,
modified ones are destructed and reconstructed in place, deleted ones are
destructed and dropped, and new ones are constructed and added. See
Reload for the full classification algorithm.

# Concurrency

A Framework is not safe for concurrent use. Callers holding a function
address obtained from one Framework must not call Reload on it from
another goroutine without external synchronization.
*/
package cpf
