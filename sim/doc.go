// Package sim provides the discrete-event simulation kernel for sensorsim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event (time, sequence, continuation) and the EventQueue heap
//   - kernel.go: the clock, Schedule/Timeout/Process, and the Run loop
//   - rng.go: per-subsystem deterministic random streams
//
// # Process model
//
// A process is a chain of continuations. Each suspension point (a timeout,
// a resource grant, the next message on a subscription) registers the next
// continuation and returns control to the Kernel. The Kernel resumes exactly
// one continuation per Event, in (time, sequence) order, so two events at the
// same instant always resume in the order they were scheduled.
//
// # Architecture
//
// Sub-packages build on the kernel:
//   - sim/resource/: capacity-constrained priority pool (sensor beams)
//   - sim/broker/: topic publish/subscribe with per-subscriber FIFO queues
//   - sim/dist/: injectable samplers for probabilistic outcomes
//   - sim/emitter/: emitter (missile) processes publishing truth positions
//   - sim/sensor/: search, detection and track-maintenance processes
//   - sim/trace/: detection decision recording
//   - sim/metrics/: prometheus collectors
//   - sim/scenario/: configuration, wiring and results of a full run
//   - sim/export/: SQLite export of run results
package sim
