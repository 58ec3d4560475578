package gateway

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"corkboard/domain"
)

const (
	saveSpanName    = "board.save"
	saveEventName   = "board.save.completed"
	saveEventDomain = "corkboard"
)

// saveMetrics records one board save for tracing and structured logging.
// Every save produces one span and one "observability.event" log entry.
type saveMetrics struct {
	logger *log.Logger
	start  time.Time
	span   trace.Span

	boardID           string
	silent            bool
	serializeDuration time.Duration
	writeDuration     time.Duration
	errorStage        string
}

func newSaveMetrics(ctx context.Context, logger *log.Logger, boardID string, silent bool) (*saveMetrics, context.Context) {
	tracer := otel.Tracer("corkboard/gateway")
	spanCtx, span := tracer.Start(ctx, saveSpanName)
	return &saveMetrics{
		logger:  logger,
		start:   time.Now(),
		span:    span,
		boardID: boardID,
		silent:  silent,
	}, spanCtx
}

func (m *saveMetrics) ObserveSerialize(d time.Duration) {
	if d <= 0 {
		return
	}
	m.serializeDuration = d
}

func (m *saveMetrics) ObserveWrite(d time.Duration) {
	if d <= 0 {
		return
	}
	m.writeDuration = d
}

func (m *saveMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the span and emits the observability event.
func (m *saveMetrics) Log(err error) {
	if m == nil {
		return
	}

	severityText, severityNumber := severityForError(err)
	totalMs := durationToMillis(time.Since(m.start))

	attrs := []attribute.KeyValue{
		attribute.String("event.name", saveEventName),
		attribute.String("event.domain", saveEventDomain),
		attribute.String("corkboard.board_id", m.boardID),
		attribute.Bool("corkboard.save.silent", m.silent),
		attribute.Float64("corkboard.save.total_ms", totalMs),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}
	if m.serializeDuration > 0 {
		attrs = append(attrs, attribute.Float64("corkboard.save.serialize_ms", durationToMillis(m.serializeDuration)))
	}
	if m.writeDuration > 0 {
		attrs = append(attrs, attribute.Float64("corkboard.save.write_ms", durationToMillis(m.writeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("corkboard.save.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("corkboard.board_id", m.boardID),
			attribute.Bool("corkboard.save.silent", m.silent),
		)
		m.span.AddEvent("observability.event", trace.WithAttributes(attrs...))
		if err != nil {
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      saveEventName,
		"event.domain":    saveEventDomain,
		"attributes":      attrMap,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		sc := m.span.SpanContext()
		if sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
		if sc.HasSpanID() {
			fields["span_id"] = sc.SpanID().String()
		}
	}
	m.logger.WithFields(fields).Info("observability.event")
}

// severityForError maps an outcome to OTLP-style severity. Model rule
// violations are warnings, transport failures are errors.
func severityForError(err error) (string, int) {
	if err == nil {
		return "INFO", 9
	}
	switch err.(type) {
	case *domain.ValidationError, *domain.NotFoundError, *domain.NotEmptyError,
		*domain.AlreadyMemberError, *domain.ProtectedColumnError:
		return "WARN", 13
	}
	return "ERROR", 17
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
