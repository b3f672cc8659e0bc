package events

import (
	"context"

	"github.com/google/uuid"
)

// Reporter — канал обратной связи логики узла во время Process:
// текстовые статусы и прогресс длительных операций.
type Reporter interface {
	Status(message string)
	Progress(value float64)
}

type reporterKey struct{}

// WithReporter кладёт Reporter в контекст выполнения узла.
func WithReporter(ctx context.Context, rep Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, rep)
}

// ReporterFromContext извлекает Reporter из контекста.
// Если репортёра нет, возвращает заглушку: логика узла не обязана
// проверять наличие слушателей.
func ReporterFromContext(ctx context.Context) Reporter {
	if rep, ok := ctx.Value(reporterKey{}).(Reporter); ok {
		return rep
	}
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Status(_ string)    {}
func (nopReporter) Progress(_ float64) {}

// SinkReporter транслирует статусы и прогресс узла в Sink.
type SinkReporter struct {
	ctx   context.Context
	sink  Sink
	runID uuid.UUID
	node  string
}

// NewSinkReporter создаёт репортёр для узла node в рамках run runID.
func NewSinkReporter(ctx context.Context, sink Sink, runID uuid.UUID, node string) *SinkReporter {
	return &SinkReporter{ctx: ctx, sink: sink, runID: runID, node: node}
}

// Status реализует интерфейс Reporter.
func (r *SinkReporter) Status(message string) {
	ev := New(r.runID, KindStatus, r.node)
	ev.Message = message
	r.sink.Publish(r.ctx, ev)
}

// Progress реализует интерфейс Reporter.
func (r *SinkReporter) Progress(value float64) {
	ev := New(r.runID, KindProgress, r.node)
	ev.Progress = value
	r.sink.Publish(r.ctx, ev)
}
