// Package telemetry provides OpenTelemetry instrumentation for agentmesh.
//
// Tracing and metrics are exported over OTLP (gRPC or HTTP). Each turn is a
// root span, each workflow step a child span, and each model call a span
// below its step. When telemetry is disabled the global no-op providers are
// used and nothing is exported.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	tracer := tel.Tracer("github.com/fyrsmithlabs/agentmesh/internal/workflow")
package telemetry
