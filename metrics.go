package wirerpc

import "github.com/armon/go-metrics"

// metricsIncr increments a counter through the default go-metrics sink,
// matching this family of libraries' convention of process-wide metric
// registration (see go-metrics' InitSink/NewGlobal in other hashicorp
// tools). Counting is best-effort: if no sink has been configured,
// go-metrics falls back to an in-memory sink and the call is a no-op cost.
func metricsIncr(key ...string) {
	metrics.IncrCounter(key, 1)
}

// metricsAddSample records a single observation (e.g. bytes per frame) into
// a sampled metric.
func metricsAddSample(value float32, key ...string) {
	metrics.AddSample(key, value)
}
