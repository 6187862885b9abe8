package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records the cost of process invocations and the progress of the
// simulation clock.
type Collector struct {
	wallSeconds *prometheus.CounterVec
	cpuSeconds  *prometheus.CounterVec
	calls       *prometheus.CounterVec
	simTime     prometheus.Gauge
	iterations  prometheus.Counter
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		wallSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "morphocore_process_wall_seconds_total",
			Help: "Wall-clock time spent in process prepare and execute",
		}, []string{"process", "phase"}),
		cpuSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "morphocore_process_cpu_seconds_total",
			Help: "CPU time spent in process prepare and execute",
		}, []string{"process", "phase"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "morphocore_process_executions_total",
			Help: "Number of process executions",
		}, []string{"process", "phase"}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "morphocore_simulation_time",
			Help: "Current simulation time",
		}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "morphocore_scheduler_iterations_total",
			Help: "Number of main loop iterations",
		}),
	}
	for _, col := range []prometheus.Collector{c.wallSeconds, c.cpuSeconds, c.calls, c.simTime, c.iterations} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveProcess adds one execution of a process.
func (c *Collector) ObserveProcess(name, phase string, wall, cpu time.Duration) {
	if c == nil {
		return
	}
	c.wallSeconds.WithLabelValues(name, phase).Add(wall.Seconds())
	c.cpuSeconds.WithLabelValues(name, phase).Add(cpu.Seconds())
	c.calls.WithLabelValues(name, phase).Inc()
}

// SetSimTime publishes the simulation clock.
func (c *Collector) SetSimTime(t float64) {
	if c == nil {
		return
	}
	c.simTime.Set(t)
}

// Iteration counts one main loop iteration.
func (c *Collector) Iteration() {
	if c == nil {
		return
	}
	c.iterations.Inc()
}
