package integration_tests

import (
	"testing"

	"github.com/vk/morphocore/internal/testutil"
)

// TestEventTriggers compares the on-change and when-true triggers on the
// same condition.
func TestEventTriggers(t *testing.T) {
	files := map[string]string{
		"main.hcl": `
time { stop = 3 }

variable "x" { value = 0 }
variable "once" { value = 0 }
variable "always" { value = 0 }

system "count" {
  time_step = 1
  rule {
    symbol_ref = "x"
    expression = "x + 1"
  }
}

event "edge" {
  condition = "x >= 2"
  time_step = 1
  rule {
    symbol_ref = "once"
    expression = "once + 1"
  }
}

event "level" {
  condition = "x >= 2"
  trigger   = "when-true"
  time_step = 1
  rule {
    symbol_ref = "always"
    expression = "always + 1"
  }
}

logger "out" {
  file      = "{{dir}}/out.csv"
  columns   = ["x", "once", "always"]
  time_step = 1
}
`,
	}

	result := testutil.RunIntegrationTest(t, files)

	testutil.AssertRunSucceeded(t, result)
	records := result.ReadCSV(t, "out.csv")
	testutil.AssertColumn(t, records, "x", "1", "2", "3", "4")
	testutil.AssertColumn(t, records, "once", "0", "1", "1", "1")
	testutil.AssertColumn(t, records, "always", "0", "1", "2", "3")
}

// TestDelayedVariable verifies that readers of a delayed variable see the
// value written one delay earlier, and the initial value before that.
func TestDelayedVariable(t *testing.T) {
	files := map[string]string{
		"main.hcl": `
time { stop = 3 }

variable "x" { value = 0 }

delay "lagged" {
  value = -1
  delay = 2
}

system "count" {
  time_step = 1
  rule {
    symbol_ref = "x"
    expression = "x + 1"
  }
}

system "copy" {
  time_step = 1
  rule {
    symbol_ref = "lagged"
    expression = "x"
  }
}

logger "out" {
  file      = "{{dir}}/out.csv"
  columns   = ["x", "lagged"]
  time_step = 1
}
`,
	}

	result := testutil.RunIntegrationTest(t, files)

	testutil.AssertRunSucceeded(t, result)
	records := result.ReadCSV(t, "out.csv")
	testutil.AssertColumn(t, records, "x", "1", "2", "3", "4")
	testutil.AssertColumn(t, records, "lagged", "-1", "-1", "1", "2")
}
