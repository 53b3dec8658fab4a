// Package trace records spans around binding generation.
//
// Spans are grouped by scope: ScopeDriver for a CLI command or a whole
// target, ScopePass for phases such as expand or assemble, and ScopeItem
// for a single manifest type or entry point. The level decides which scopes
// reach the output.
//
//	fbind generate --trace=- --trace-level=detail
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopePass, "expand")
//	defer span.End("")
package trace
