package testutil

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/app"
	"github.com/vk/morphocore/internal/registry"
)

// DirPlaceholder in model sources is replaced by the test's temporary
// directory, so that models can name output files.
const DirPlaceholder = "{{dir}}"

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Dir       string
}

// RunIntegrationTest writes files into a temporary directory and runs every
// model found there through the full application. Paths in files are
// relative to that directory.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	modelDir := filepath.Join(dir, "model")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	for name, content := range files {
		path := filepath.Join(modelDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		content = strings.ReplaceAll(content, DirPlaceholder, dir)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	testApp, logs := app.SetupAppTest(t, app.Config{ModelPaths: []string{modelDir}, WorkerCount: 4}, modules...)
	err := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logs.String(),
		Err:       err,
		App:       testApp,
		Dir:       dir,
	}
}

// ReadCSV parses a CSV file written by a logger process, relative to the
// harness directory.
func (r *HarnessResult) ReadCSV(t *testing.T, name string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(r.Dir, name))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}
