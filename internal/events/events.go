package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Kind — тип события.
type Kind string

// Типы событий.
const (
	KindRunStarted   Kind = "run.started"
	KindRunSucceeded Kind = "run.succeeded"
	KindRunFailed    Kind = "run.failed"
	KindRunBlocked   Kind = "run.blocked"

	KindNodeResolving Kind = "node.resolving"
	KindNodeResolved  Kind = "node.resolved"
	KindNodeCached    Kind = "node.cached"
	KindNodeFailed    Kind = "node.failed"

	// KindStatus — текстовый статус от логики узла.
	KindStatus Kind = "node.status"

	// KindProgress — прогресс длительной операции (0..1).
	KindProgress Kind = "node.progress"

	// KindVisibility — переключение видимости параметра в UI.
	KindVisibility Kind = "node.visibility"
)

// Event — уведомление о ходе выполнения.
type Event struct {
	// ID — уникальный идентификатор события.
	ID uuid.UUID `json:"id"`

	// RunID — идентификатор run, в рамках которого произошло событие.
	RunID uuid.UUID `json:"run_id"`

	// Kind — тип события.
	Kind Kind `json:"kind"`

	// Node — имя узла (пустое для событий уровня run).
	Node string `json:"node,omitempty"`

	// Message — человекочитаемое описание (статус, текст ошибки).
	Message string `json:"message,omitempty"`

	// Progress — прогресс 0..1 для KindProgress.
	Progress float64 `json:"progress,omitempty"`

	// Payload — произвольные данные события.
	Payload map[string]any `json:"payload,omitempty"`

	// Timestamp — время создания события.
	Timestamp time.Time `json:"timestamp"`
}

// New создаёт событие с заполненными ID и Timestamp.
func New(runID uuid.UUID, kind Kind, node string) Event {
	return Event{
		ID:        uuid.New(),
		RunID:     runID,
		Kind:      kind,
		Node:      node,
		Timestamp: time.Now(),
	}
}

// Sink — приёмник событий.
//
// Publish не возвращает ошибку: доставка fire-and-forget,
// реализация сама логирует свои проблемы.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// NopSink — приёмник, отбрасывающий все события.
type NopSink struct{}

// Publish реализует интерфейс Sink.
func (NopSink) Publish(_ context.Context, _ Event) {}

// LogSink пишет события в структурированный лог.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создаёт LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Publish реализует интерфейс Sink.
func (s *LogSink) Publish(_ context.Context, event Event) {
	s.logger.Info("event",
		"kind", event.Kind,
		"run_id", event.RunID,
		"node", event.Node,
		"message", event.Message,
	)
}

// MultiSink рассылает событие нескольким приёмникам.
type MultiSink []Sink

// Publish реализует интерфейс Sink.
func (m MultiSink) Publish(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Publish(ctx, event)
	}
}
