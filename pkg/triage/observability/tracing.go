package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for triage operations.
const TracerName = "triage"

// Span attribute keys.
const (
	AttrTicketID   = "ticket_id"
	AttrCategory   = "category"
	AttrUrgency    = "urgency"
	AttrModel      = "model"
	AttrAgentID    = "agent_id"
	AttrIncidentID = "incident_id"
	AttrBatchSize  = "batch_size"
)

// Span names.
const (
	SpanProcessTicket    = "triage.process_ticket"
	SpanClassify         = "triage.classify"
	SpanStormConsolidate = "triage.storm_consolidate"
	SpanDispatch         = "triage.dispatch"
)

// Tracer provides distributed tracing for the per-ticket pipeline.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new triage tracer.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartTicketSpan starts the root span for one ticket's pipeline.
func (t *Tracer) StartTicketSpan(ctx context.Context, ticketID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanProcessTicket,
		trace.WithAttributes(attribute.String(AttrTicketID, ticketID)))
}

// StartClassifySpan starts a span for the classification call.
func (t *Tracer) StartClassifySpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanClassify)
}

// StartStormSpan starts a span for storm consolidation.
func (t *Tracer) StartStormSpan(ctx context.Context, batchSize int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanStormConsolidate,
		trace.WithAttributes(attribute.Int(AttrBatchSize, batchSize)))
}

// RecordError marks the span failed with the given error.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
