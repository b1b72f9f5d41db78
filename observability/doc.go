// Package observability provides OpenTelemetry tracing and metrics for
// compgraph runs.
//
// Instrumentation always goes through the global providers, which are no-ops
// until Setup (or InitTracer/InitMeter) installs real ones:
//
//	shutdown, err := observability.Setup(ctx, observability.Config{
//	    ServiceName: "compgraph",
//	    Endpoint:    "localhost:4318",
//	    Insecure:    true,
//	    SampleRate:  1.0,
//	})
//	defer shutdown(ctx)
//
// Graph runs are tracked with StartRun/Run.End, external sorts record
// EngineMetrics (compgraph.sort.chunks, compgraph.sort.spilled_rows,
// compgraph.sort.duration).
package observability
