// SPDX-License-Identifier: MPL-2.0

// Package registry models the process-wide module-loading environment as an
// explicit abstraction. The test runner and the build pipeline go through a
// Registry instead of touching the execution environment directly, so both
// can be exercised against the in-memory Fake without real script loading.
package registry

import (
	"context"
	"slices"

	"psforge/internal/shell"
)

// Registry tracks which script modules are loaded into the active execution
// environment. The discipline is strict load-before-use, unload-after-use;
// there is no concurrent access because the pipeline is single-threaded.
type Registry interface {
	// Load makes the named module's definitions available in the active
	// environment. Loading an already-loaded module is a no-op.
	Load(ctx context.Context, name, path string) error
	// Unload removes the named module's definitions. Unloading a module that
	// is not loaded is a no-op.
	Unload(ctx context.Context, name string) error
	// IsLoaded reports whether the named module is currently loaded.
	IsLoaded(name string) bool
	// Loaded returns the loaded module names in load order.
	Loaded() []string
}

// ShellRegistry loads modules by sourcing their files into an embedded shell
// Session and unloads them by unsetting the functions each file declared.
type ShellRegistry struct {
	session *shell.Session
	funcs   map[string][]string // module name -> functions it declared
	order   []string
}

// NewShellRegistry creates a registry backed by the given session.
func NewShellRegistry(session *shell.Session) *ShellRegistry {
	return &ShellRegistry{
		session: session,
		funcs:   map[string][]string{},
	}
}

// Load sources the module file into the session.
func (r *ShellRegistry) Load(ctx context.Context, name, path string) error {
	if r.IsLoaded(name) {
		return nil
	}
	funcs, err := r.session.Source(ctx, path)
	if err != nil {
		return err
	}
	r.funcs[name] = funcs
	r.order = append(r.order, name)
	return nil
}

// Unload unsets the functions the module declared when it was loaded.
func (r *ShellRegistry) Unload(ctx context.Context, name string) error {
	funcs, ok := r.funcs[name]
	if !ok {
		return nil
	}
	if err := r.session.Unset(ctx, funcs); err != nil {
		return err
	}
	delete(r.funcs, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return nil
}

// IsLoaded reports whether the module is currently loaded.
func (r *ShellRegistry) IsLoaded(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Loaded returns the loaded module names in load order.
func (r *ShellRegistry) Loaded() []string {
	return slices.Clone(r.order)
}
