package integration_tests

import (
	"testing"

	"github.com/vk/morphocore/internal/testutil"
)

// TestReporterMapping verifies that a mapping reporter reduces a cell
// property over the population of its scope.
func TestReporterMapping(t *testing.T) {
	files := map[string]string{
		"main.hcl": `
time { stop = 2 }

scope "tissue" {
  population { size = 3 }

  property "volume" { value = 2 }
  variable "total_volume" { value = 0 }
  variable "largest" { value = 0 }

  reporter "total" {
    input   = "volume"
    output  = "total_volume"
    mapping = "sum"
  }
  reporter "max" {
    input   = "volume"
    output  = "largest"
    mapping = "max"
  }

  logger "out" {
    file      = "{{dir}}/out.csv"
    columns   = ["total_volume", "largest"]
    time_step = 1
  }
}
`,
	}

	result := testutil.RunIntegrationTest(t, files)

	testutil.AssertRunSucceeded(t, result)
	records := result.ReadCSV(t, "out.csv")
	testutil.AssertColumn(t, records, "total_volume", "6", "6", "6")
	testutil.AssertColumn(t, records, "largest", "2", "2", "2")
}

// TestCellGrowth verifies that systems update every cell of the population.
func TestCellGrowth(t *testing.T) {
	files := map[string]string{
		"main.hcl": `
time { stop = 2 }

scope "tissue" {
  population { size = 4 }

  property "volume" { value = 1 }
  variable "total" { value = 0 }

  system "grow" {
    time_step = 1
    rule {
      symbol_ref = "volume"
      expression = "volume * 2"
    }
  }
  reporter "sum" {
    input   = "volume"
    output  = "total"
    mapping = "sum"
  }
  logger "out" {
    file      = "{{dir}}/out.csv"
    columns   = ["total"]
    time_step = 1
  }
}
`,
	}

	result := testutil.RunIntegrationTest(t, files)

	testutil.AssertRunSucceeded(t, result)
	testutil.AssertColumn(t, result.ReadCSV(t, "out.csv"), "total", "8", "16", "32")
}
