package integration_tests

import (
	"testing"

	"github.com/vk/morphocore/internal/testutil"
)

// TestContinuousProcess runs an externally supplied stepper at a finer step
// than the logger.
func TestContinuousProcess(t *testing.T) {
	files := map[string]string{
		"main.hcl": `
time { stop = 2 }

variable "v" { value = 0 }

continuous "grow" {
  method     = "euler"
  time_step  = 0.5
  symbol_ref = "v"
  rate       = "1"
}

logger "out" {
  file      = "{{dir}}/out.csv"
  columns   = ["v"]
  time_step = 1
}
`,
	}

	result := testutil.RunIntegrationTest(t, files, testutil.EulerModule{})

	testutil.AssertRunSucceeded(t, result)
	records := result.ReadCSV(t, "out.csv")
	testutil.AssertColumn(t, records, "time", "0", "1", "2")
	testutil.AssertColumn(t, records, "v", "0", "1", "2")
}
