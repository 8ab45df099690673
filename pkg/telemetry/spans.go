package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "singura/detect"

// Attribute keys of the detection-pass span vocabulary. Dashboards key on
// these; keep them stable.
const (
	AttrOrganization   = attribute.Key("singura.organization")
	AttrEventCount     = attribute.Key("singura.events")
	AttrPatternCount   = attribute.Key("singura.patterns")
	AttrIndicatorCount = attribute.Key("singura.indicators")
	AttrSignatureCount = attribute.Key("singura.signatures")
	AttrOverallRisk    = attribute.Key("singura.overall_risk")
	AttrDetector       = attribute.Key("singura.detector")
)

// StartPass opens the root span of one engine invocation.
func StartPass(ctx context.Context, organizationID string, eventCount int) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "DetectShadowAI")
	span.SetAttributes(
		AttrOrganization.String(organizationID),
		AttrEventCount.Int(eventCount),
	)
	return ctx, span
}

// StartDetector opens the child span of one detector run.
func StartDetector(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Detector."+name)
	span.SetAttributes(AttrDetector.String(name))
	return ctx, span
}

// RecordPassResult stamps a pass's fused outcome onto its root span.
func RecordPassResult(span trace.Span, patterns, indicators, signatures int, overallRisk float64) {
	span.SetAttributes(
		AttrPatternCount.Int(patterns),
		AttrIndicatorCount.Int(indicators),
		AttrSignatureCount.Int(signatures),
		AttrOverallRisk.Float64(overallRisk),
	)
}
