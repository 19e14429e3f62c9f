package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "gitnotifier/pkg/errors"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Output
	Output = &buf
	t.Cleanup(func() { Output = old })
	return &buf
}

func TestColorFunc(t *testing.T) {
	original := supportsColor
	defer func() { supportsColor = original }()

	funcs := []func(string) string{ColorSuccess, ColorError, ColorWarning, ColorInfo, ColorBold, ColorDim}

	supportsColor = true
	for _, fn := range funcs {
		assert.NotEqual(t, "text", fn("text"))
		assert.Contains(t, fn("text"), "text")
	}

	supportsColor = false
	for _, fn := range funcs {
		assert.Equal(t, "text", fn("text"))
	}
}

func TestShowHeader(t *testing.T) {
	buf := captureOutput(t)

	ShowHeader("Repositories")

	assert.Contains(t, buf.String(), "Repositories")
	assert.Contains(t, buf.String(), "+------")
}

func TestShowHeaderLongTitle(t *testing.T) {
	buf := captureOutput(t)

	assert.NotPanics(t, func() {
		ShowHeader("a title that is considerably longer than the fifty column header box")
	})
	assert.Contains(t, buf.String(), "considerably")
}

func TestShowError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		keyword string
	}{
		{"authentication", errors.New("authentication required"), "gitnotifier auth set"},
		{"unresolvable host", errors.New("fatal: could not resolve host: example.invalid"), "network connectivity"},
		{"ssh permission", errors.New("Permission denied (publickey)"), "SSH key"},
		{"missing branch", errors.New("fatal: Remote branch nope not found in upstream origin"), "branch name"},
		{"no dbus", errors.New("org.freedesktop.DBus.Error.ServiceUnknown"), "console transport"},
		{"generic", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureOutput(t)
			ShowError(tt.err)

			out := buf.String()
			assert.Contains(t, out, "ERROR:")
			if tt.keyword == "" {
				assert.NotContains(t, out, "TIP:")
			} else {
				assert.Contains(t, out, "TIP:")
				assert.Contains(t, out, tt.keyword)
			}
		})
	}
}

func TestShowErrorSkipsTipForAppErrorSuggestions(t *testing.T) {
	buf := captureOutput(t)

	ShowError(apperrors.CloneError("repo", errors.New("connection refused")))

	assert.Contains(t, buf.String(), "Suggestions:")
	assert.NotContains(t, buf.String(), "TIP:")
}

func TestShowMessages(t *testing.T) {
	original := supportsColor
	supportsColor = false
	defer func() { supportsColor = original }()

	buf := captureOutput(t)
	ShowSuccess("saved")
	ShowWarning("careful")
	ShowInfo("hello")
	PrintKeyValue("Branch", "main")

	out := buf.String()
	assert.Contains(t, out, "SUCCESS: saved\n")
	assert.Contains(t, out, "WARNING: careful\n")
	assert.Contains(t, out, "INFO: hello\n")
	assert.Contains(t, out, "Branch:")
	assert.Contains(t, out, "main")
}
