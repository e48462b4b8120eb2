// SPDX-License-Identifier: MPL-2.0

// Package issue maps pipeline failures to user-facing help.
//
// Each Issue pairs an identifier with a markdown help text that can be
// rendered to the terminal. FromError classifies the typed errors from
// pkg/psproj so the CLI can show the right help next to the raw error.
package issue

import (
	"errors"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"

	"psforge/pkg/psproj"
)

type Id int

const (
	DescriptorNotFoundId Id = iota + 1
	DescriptorParseErrorId
	InvalidModuleId
	FileNotFoundId
	ArchiveNotFoundId
	IOFailureId
)

type MarkdownMsg string

type Issue struct {
	id    Id
	mdMsg MarkdownMsg
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	descriptorNotFoundIssue = &Issue{
		id: DescriptorNotFoundId,
		mdMsg: `
# No project descriptor found!

Every project needs a psproj.json descriptor at its root.

## Things you can try:
- Scaffold a fresh project:
~~~
$ psforge init
~~~

- Or point psforge at the right directory:
~~~
$ psforge build /path/to/project
~~~`,
	}

	descriptorParseErrorIssue = &Issue{
		id: DescriptorParseErrorId,
		mdMsg: `
# Failed to parse psproj.json!

The descriptor contains invalid JSON or a field with the wrong type.

## Common issues:
- Trailing commas or missing quotes
- ` + "`authors`" + ` or ` + "`dependencies`" + ` given as a string instead of an array

## Example of a valid descriptor:
~~~json
{
  "projectName": "MyModule",
  "version": "1.0.0",
  "authors": ["Alice"],
  "src": "src",
  "dist": "dist",
  "tests": "tests",
  "rootModule": "MyModule"
}
~~~`,
	}

	invalidModuleIssue = &Issue{
		id: InvalidModuleId,
		mdMsg: `
# Module not part of the project!

The requested module name was not found among the project's module files.

## Things you can try:
- Check the spelling of the module name
- Check the ` + "`rootModule`" + ` field in psproj.json
- Make sure the module file (.psm1) exists under the source directory`,
	}

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# A required file is missing!

A module file or directory the pipeline depends on does not exist.

## Things you can try:
- Check the ` + "`src`" + `, ` + "`dist`" + ` and ` + "`tests`" + ` paths in psproj.json
- Make sure the module file matches the declared root module name`,
	}

	archiveNotFoundIssue = &Issue{
		id: ArchiveNotFoundId,
		mdMsg: `
# Module not built yet!

No release archive was found in the distribution directory.

## Things you can try:
- Build the project first:
~~~
$ psforge build .
~~~

- Check the ` + "`dist`" + ` path in psproj.json`,
	}

	ioFailureIssue = &Issue{
		id: IOFailureId,
		mdMsg: `
# Filesystem operation failed!

A copy, delete, or create operation was blocked.

## Common causes:
- Missing permissions on the dist or staging directory
- A file locked by another process
- Disk full

## Things you can try:
- Rerun the build; dist and staging are destructively reset, so builds self-heal
- Check ownership and permissions of the project directory`,
	}

	issues = map[Id]*Issue{
		descriptorNotFoundIssue.Id():   descriptorNotFoundIssue,
		descriptorParseErrorIssue.Id(): descriptorParseErrorIssue,
		invalidModuleIssue.Id():        invalidModuleIssue,
		fileNotFoundIssue.Id():         fileNotFoundIssue,
		archiveNotFoundIssue.Id():      archiveNotFoundIssue,
		ioFailureIssue.Id():            ioFailureIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// FromError classifies a pipeline error into an Issue, or nil when no help
// text applies.
func FromError(err error) *Issue {
	var (
		notFound *psproj.NotFoundError
		parse    *psproj.ParseError
		invalid  *psproj.InvalidModuleError
		ioErr    *psproj.IOError
	)
	switch {
	case errors.As(err, &parse):
		return Get(DescriptorParseErrorId)
	case errors.As(err, &invalid):
		return Get(InvalidModuleId)
	case errors.As(err, &notFound):
		switch notFound.Resource {
		case "project descriptor":
			return Get(DescriptorNotFoundId)
		case "release archive":
			return Get(ArchiveNotFoundId)
		default:
			return Get(FileNotFoundId)
		}
	case errors.As(err, &ioErr):
		return Get(IOFailureId)
	default:
		return nil
	}
}
