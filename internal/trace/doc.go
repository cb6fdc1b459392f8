// Package trace records what a typeweave run is doing: project loading,
// pipeline stages, one span per type model session and, at the most
// verbose level, every mutation a recipe applies.
//
// # Usage
//
//	typeweave build --trace=- --trace-level=detail
//
// # Tracers
//
//   - Nop: disabled tracing
//   - StreamTracer: writes every event as it happens
//   - RingTracer: keeps the last N events for a dump on failure
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only the ring dump on failure
//   - LevelPhase: driver and pipeline stages
//   - LevelDetail: one span per session
//   - LevelDebug: every mutation
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeSession, "session:Gen.Proxy")
//	defer span.End("")
package trace
