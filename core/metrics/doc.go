// Package metrics defines the sink interfaces used to observe simulation
// batches. Every sink records finished simulations; sinks may also implement
// ProgressRecorder or BatchRecorder. Sinks are built from configuration
// through the registry in this package, and the factory helpers return a
// MultiSink automatically when multiple sinks are configured. Concrete sinks
// are registered by infra/metrics.
package metrics
