// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"slices"
)

// Fake is an in-memory Registry for tests. It records every Load and Unload
// call and can be told to fail on demand.
type Fake struct {
	// Loads and Unloads record call arguments in order.
	Loads   []string
	Unloads []string
	// LoadErr, when set, is returned by Load for the named module.
	LoadErr map[string]error

	loaded []string
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{LoadErr: map[string]error{}}
}

func (f *Fake) Load(_ context.Context, name, _ string) error {
	f.Loads = append(f.Loads, name)
	if err := f.LoadErr[name]; err != nil {
		return err
	}
	if !f.IsLoaded(name) {
		f.loaded = append(f.loaded, name)
	}
	return nil
}

func (f *Fake) Unload(_ context.Context, name string) error {
	f.Unloads = append(f.Unloads, name)
	f.loaded = slices.DeleteFunc(f.loaded, func(n string) bool { return n == name })
	return nil
}

func (f *Fake) IsLoaded(name string) bool {
	return slices.Contains(f.loaded, name)
}

func (f *Fake) Loaded() []string {
	return slices.Clone(f.loaded)
}
