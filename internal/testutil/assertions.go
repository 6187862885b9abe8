package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertRunSucceeded fails the test with the captured logs when the run
// returned an error.
func AssertRunSucceeded(t *testing.T, result *HarnessResult) {
	t.Helper()
	require.NoError(t, result.Err, "run failed, logs:\n%s", result.LogOutput)
}

// AssertColumn checks one column of a logger CSV, header excluded.
func AssertColumn(t *testing.T, records [][]string, column string, want ...string) {
	t.Helper()
	require.NotEmpty(t, records, "CSV has no header")
	idx := -1
	for i, name := range records[0] {
		if name == column {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0, "column %q not in header %v", column, records[0])

	got := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		got = append(got, row[idx])
	}
	require.Equal(t, want, got, "column %q", column)
}
