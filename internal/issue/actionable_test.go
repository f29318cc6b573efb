// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load settings"},
			expected: "failed to load settings",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load settings", Resource: "config.cue"},
			expected: "failed to load settings: config.cue",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load project configuration",
				Resource:  "kas.yml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load project configuration: kas.yml: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("fetch repos").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Errorf("errors.Is(%v, sentinel) = false", err)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection refused")
	err := &ActionableError{
		Operation:   "fetch repos",
		Suggestions: []string{"Check the network", "Set GITLAB_TOKEN"},
		Cause:       errors.Join(inner),
	}

	plain := err.Format(false)
	if !strings.Contains(plain, "  • Check the network") || !strings.Contains(plain, "  • Set GITLAB_TOKEN") {
		t.Errorf("Format(false) = %q, missing suggestions", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. connection refused") {
		t.Errorf("Format(true) = %q, missing chain", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}

	ae := NewErrorContext().
		WithOperation("load settings").
		WithResource("config.cue").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		WithIssue(SettingsInvalidId).
		Build()
	if ae.Issue != SettingsInvalidId {
		t.Errorf("Issue = %d, want %d", ae.Issue, SettingsInvalidId)
	}
	if !ae.HasSuggestions() || len(ae.Suggestions) != 3 {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	ae := WrapWithOperation(errors.New("boom"), "write config")
	if ae.Error() != "failed to write config: boom" {
		t.Errorf("Error() = %q", ae.Error())
	}
}
