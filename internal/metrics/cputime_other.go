//go:build !unix

package metrics

import "time"

// CPUTime is not available on this platform and always returns 0.
func CPUTime() time.Duration { return 0 }
