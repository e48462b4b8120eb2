// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"psforge/pkg/psproj"
)

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{DescriptorNotFoundId, false, "No project descriptor found"},
		{DescriptorParseErrorId, false, "Failed to parse psproj.json"},
		{InvalidModuleId, false, "Module not part of the project"},
		{FileNotFoundId, false, "required file is missing"},
		{ArchiveNotFoundId, false, "Module not built yet"},
		{IOFailureId, false, "Filesystem operation failed"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("issue.Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	if len(issues) != 6 {
		t.Errorf("Values() returned %d issues, want 6", len(issues))
	}

	for _, issue := range issues {
		if issue.Id() == 0 {
			t.Error("found issue with ID 0")
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("issue %d has empty MarkdownMsg", issue.Id())
		}
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	for _, issue := range Values() {
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("issue %d rendered to empty string", issue.Id())
		}
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Id
	}{
		{
			name: "descriptor missing",
			err:  &psproj.NotFoundError{Resource: "project descriptor", Path: "/p/psproj.json"},
			want: DescriptorNotFoundId,
		},
		{
			name: "archive missing",
			err:  &psproj.NotFoundError{Resource: "release archive", Path: "/p/dist/M-*.zip"},
			want: ArchiveNotFoundId,
		},
		{
			name: "module file missing",
			err:  &psproj.NotFoundError{Resource: "module file", Path: "/p/src/M.psm1"},
			want: FileNotFoundId,
		},
		{
			name: "parse failure",
			err:  &psproj.ParseError{Path: "/p/psproj.json", Cause: errors.New("bad json")},
			want: DescriptorParseErrorId,
		},
		{
			name: "unknown module",
			err:  &psproj.InvalidModuleError{Module: "Nope", Known: []string{"MyModule"}},
			want: InvalidModuleId,
		},
		{
			name: "io failure",
			err:  &psproj.IOError{Op: "copy", Path: "/p/dist", Cause: errors.New("denied")},
			want: IOFailureId,
		},
		{
			name: "wrapped error still classifies",
			err:  fmt.Errorf("build: %w", &psproj.NotFoundError{Resource: "project descriptor", Path: "x"}),
			want: DescriptorNotFoundId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := FromError(tt.err)
			if issue == nil {
				t.Fatal("FromError() returned nil")
			}
			if issue.Id() != tt.want {
				t.Errorf("FromError() = %d, want %d", issue.Id(), tt.want)
			}
		})
	}

	t.Run("unclassified error", func(t *testing.T) {
		if issue := FromError(errors.New("something else")); issue != nil {
			t.Errorf("FromError() = %v, want nil", issue)
		}
	})
}

func TestActionableError(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapWithContext(cause, "stage module files", "/p/dist/stage").
		WithSuggestion("Check permissions on the dist directory")

	if got := err.Error(); got != "failed to stage module files: /p/dist/stage: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should reach the cause")
	}

	plain := err.Format(false)
	if !strings.Contains(plain, "• Check permissions") {
		t.Errorf("Format(false) missing suggestion: %q", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Format(false) should omit the error chain: %q", plain)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("Format(true) missing error chain: %q", verbose)
	}

	if WrapWithOperation(nil, "anything") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
}
