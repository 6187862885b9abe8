//go:build unix

package metrics

import (
	"time"

	"golang.org/x/sys/unix"
)

// CPUTime returns the user plus system CPU time consumed by this process.
func CPUTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}
