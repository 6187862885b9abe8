// Package metrics exposes simulation cost and progress as prometheus
// collectors and measures process CPU time.
package metrics
