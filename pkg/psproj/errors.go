// SPDX-License-Identifier: MPL-2.0

package psproj

import (
	"fmt"
	"strings"
)

// NotFoundError reports a required file that does not exist: the project
// descriptor, a module file, or a release archive.
type NotFoundError struct {
	// Resource describes what was being looked for (e.g. "project descriptor").
	Resource string
	// Path is the location that was checked.
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Path)
}

// ParseError reports a descriptor file that could not be decoded or that
// violates the descriptor schema.
type ParseError struct {
	// Path is the descriptor file that failed to parse.
	Path string
	// Cause is the underlying decode or schema error.
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// InvalidModuleError reports a module name that is not part of the project's
// discovered module set.
type InvalidModuleError struct {
	// Module is the requested module name (extension already stripped).
	Module string
	// Known lists the module names discovered in the project.
	Known []string
}

func (e *InvalidModuleError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("module %q is not part of the project (no modules found)", e.Module)
	}
	return fmt.Sprintf("module %q is not part of the project (known modules: %s)",
		e.Module, strings.Join(e.Known, ", "))
}

// IOError reports a failed filesystem operation: permissions, locks, disk
// full. The pipeline surfaces these immediately without retrying.
type IOError struct {
	// Op names the operation that failed (e.g. "reset dist directory").
	Op string
	// Path is the file or directory involved.
	Path string
	// Cause is the underlying error.
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }
