package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), &out, args)
	return out.String(), err
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "morphocore version "+Version)
}

func TestHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "check")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"run", "--this-is-not-a-valid-flag", "m.hcl"}},
		{"missing path", []string{"run"}},
		{"bad log level", []string{"check", "--log-level", "loud", "m.hcl"}},
		{"resume without run id", []string{"run", "--resume", "--checkpoint-dir", "x", "m.hcl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, exitCode(err), "error: %v", err)
		})
	}
}

func TestCheckAndRun(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(model, []byte(`
time { stop = 2 }
variable "x" { value = 0 }
system "count" {
  time_step = 1
  rule {
    symbol_ref = "x"
    expression = "x + 1"
  }
}
`), 0o600))

	out, err := execute(t, "check", "--log-format", "json", model)
	require.NoError(t, err)
	assert.Contains(t, out, "model OK")

	out, err = execute(t, "run", "--workers", "2", model)
	require.NoError(t, err)
	assert.Contains(t, out, "Simulation finished.")
}

func TestRunReportsModelErrors(t *testing.T) {
	model := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(model, []byte(`variable "x" {`), 0o600))

	_, err := execute(t, "run", model)
	require.Error(t, err)
	assert.Equal(t, -1, exitCode(err))
	assert.Contains(t, err.Error(), "failed to parse")
}
