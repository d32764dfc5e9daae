// Package trace records spans for a bueno fmt run.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	bueno fmt --trace=- --trace-level=detail "src/**/*"
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only failed spans
//   - LevelPhase: Run boundaries (config, plugin loading, batch)
//   - LevelDetail: One span per processed file
//   - LevelDebug: Everything including embedded code blocks
//
// # Context Propagation
//
// Tracers travel with the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//
//	ctx, span := trace.StartSpan(ctx, trace.ScopeFile, "fmt:"+path)
//	defer span.End("")
package trace
