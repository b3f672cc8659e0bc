package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Nodeflow/internal/events"
	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// Report — итог одного run.
type Report struct {
	// RunID — идентификатор run.
	RunID uuid.UUID

	// StartNode — стартовый узел control-пути.
	StartNode string

	// StartedAt, FinishedAt — время начала и завершения.
	StartedAt  time.Time
	FinishedAt time.Time

	// Resolved — имена узлов в порядке резолюции.
	Resolved []string

	// Cached — количество попаданий в кэш.
	Cached int

	// Steps — количество узлов, пройденных control-путём.
	Steps int

	// Halted — control-путь остановлен досрочно (не ошибка).
	Halted bool

	// HaltReason — причина досрочной остановки.
	HaltReason string
}

// Duration возвращает длительность run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate выполняет предварительную валидацию всех узлов графа.
// Непустой результат хотя бы одного узла блокирует запуск целиком.
func (r *Resolver) Validate() error {
	var failures []ValidationFailure

	for _, n := range r.graph.Nodes() {
		v, ok := n.Logic().(graph.Validator)
		if !ok {
			continue
		}
		if errs := v.ValidateBeforeRun(n); len(errs) > 0 {
			failures = append(failures, ValidationFailure{Node: n.Name(), Errs: errs})
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return &PreRunError{Failures: failures}
}

// Run проходит control-путь от узла start.
//
// Каждый узел пути резолвится (вместе с upstream-зависимостями по данным),
// затем роутер выбирает следующий control-выход. Ошибка резолюции
// прерывает run; Report при этом возвращается вместе с ошибкой.
func (r *Resolver) Run(ctx context.Context, start string) (*Report, error) {
	if _, ok := r.graph.Node(start); !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrUnknownNode, start)
	}

	if err := r.Validate(); err != nil {
		telemetry.RunsTotal.WithLabelValues("blocked").Inc()

		ev := events.New(uuid.New(), events.KindRunBlocked, "")
		ev.Message = err.Error()
		r.sink.Publish(ctx, ev)

		return nil, err
	}

	sc := r.newRunScope()
	report := &Report{
		RunID:     sc.id,
		StartNode: start,
		StartedAt: time.Now(),
	}

	telemetry.RunsActive.Inc()
	defer telemetry.RunsActive.Dec()

	r.sink.Publish(ctx, sc.event(events.KindRunStarted, start))
	sc.logger.Info("run started", "start_node", start)

	// Control-ребро срабатывает не более одного раза за run:
	// повторное попадание на то же ребро останавливает проход.
	fired := make(map[string]bool)

	current := start
	for {
		report.Steps++

		if err := r.resolveNode(ctx, sc, current); err != nil {
			r.finishReport(report, sc)

			telemetry.RunsTotal.WithLabelValues("failed").Inc()
			ev := sc.event(events.KindRunFailed, current)
			ev.Message = err.Error()
			r.sink.Publish(ctx, ev)

			sc.logger.Error("run failed", "node", current, "error", err)
			return report, err
		}

		next, reason, proceed := r.route(sc, current, fired)
		if !proceed {
			if reason != "" {
				report.Halted = true
				report.HaltReason = reason
			}
			break
		}
		current = next
	}

	r.finishReport(report, sc)

	telemetry.RunsTotal.WithLabelValues(runOutcome(report)).Inc()
	r.sink.Publish(ctx, sc.event(events.KindRunSucceeded, ""))
	sc.logger.Info("run finished",
		"steps", report.Steps,
		"resolved", len(report.Resolved),
		"cached", report.Cached,
		"halted", report.Halted,
	)

	return report, nil
}

func (r *Resolver) finishReport(report *Report, sc *runScope) {
	report.FinishedAt = time.Now()
	report.Resolved = sc.resolved
	report.Cached = sc.cached
}

func runOutcome(report *Report) string {
	if report.Halted {
		return "halted"
	}
	return "succeeded"
}
