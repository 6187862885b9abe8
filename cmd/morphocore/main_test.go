package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/cli"
)

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"run", "--this-is-not-a-valid-flag", "m.hcl"})

	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_InvalidModel(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(`
		system "s" {
			time_step = 1
		// Missing closing brace here
	`), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, []string{"check", filePath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, []string{"version"}))
	require.Contains(t, out.String(), "morphocore version")
}
