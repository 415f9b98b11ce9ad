// Package trace records what mqltools is doing while it drives the vendor
// compiler, parses logs and prepares workspaces.
//
// # Usage
//
//	mqltools check --trace=- --trace-level=detail Experts/Main.mq5
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: nothing is streamed; reserved for failure reports
//   - LevelPhase: command and pass boundaries
//   - LevelDetail: per-file work (one compiler run, one log parse)
//   - LevelDebug: everything, including per-line classification
//
// # Scopes
//
//   - ScopeDriver: a CLI command or an LSP request
//   - ScopePass: a phase inside it (compile, decode, parse, write)
//   - ScopeFile: work on a single source or log file
//   - ScopeLine: a single log line
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", 0)
//	defer span.End("")
package trace
