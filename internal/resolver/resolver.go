package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Nodeflow/internal/events"
	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/task"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// Resolver выполняет узлы графа и управляет кэшем резолюции.
type Resolver struct {
	graph  *graph.Graph
	runner *task.Runner
	sink   events.Sink
	logger *slog.Logger

	// inflight — выполняющиеся резолюции, не более одной на узел.
	// Повторный запрос дожидается первой и переиспользует её результат.
	mu       sync.Mutex
	inflight map[string]*inflightResolution
}

// Config — конфигурация Resolver.
type Config struct {
	// Graph — граф узлов (обязателен).
	Graph *graph.Graph

	// Runner — исполнитель отложенных задач (default: task.New с дефолтами).
	Runner *task.Runner

	// Sink — приёмник событий (default: NopSink).
	Sink events.Sink

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Resolver.
func New(cfg Config) *Resolver {
	runner := cfg.Runner
	if runner == nil {
		runner = task.New(task.Config{})
	}

	sink := cfg.Sink
	if sink == nil {
		sink = events.NopSink{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		graph:    cfg.Graph,
		runner:   runner,
		sink:     sink,
		logger:   logger,
		inflight: make(map[string]*inflightResolution),
	}
}

// Graph возвращает граф, с которым работает Resolver.
func (r *Resolver) Graph() *graph.Graph {
	return r.graph
}

// inflightResolution — выполняющаяся резолюция узла.
// err валиден после закрытия done.
type inflightResolution struct {
	done chan struct{}
	err  error
}

// runScope — состояние одного run. Резолюция внутри run последовательна,
// поэтому поля не требуют синхронизации.
type runScope struct {
	id     uuid.UUID
	logger *slog.Logger

	// visiting — узлы на текущем пути протягивания, для обнаружения циклов.
	visiting map[string]bool

	// resolved — порядок резолюции узлов в этом run.
	resolved []string

	// cached — количество попаданий в кэш.
	cached int
}

func (r *Resolver) newRunScope() *runScope {
	id := uuid.New()
	return &runScope{
		id:       id,
		logger:   telemetry.WithRunID(r.logger, id.String()),
		visiting: make(map[string]bool),
	}
}

// event создаёт событие в рамках этого run.
func (sc *runScope) event(kind events.Kind, node string) events.Event {
	return events.New(sc.id, kind, node)
}

// ResolveNode резолвит узел name вместе со всеми его upstream-зависимостями.
//
// Вызов вне Run: для интерактивного пересчёта одного узла.
func (r *Resolver) ResolveNode(ctx context.Context, name string) error {
	return r.resolveNode(ctx, r.newRunScope(), name)
}

// resolveNode — точка входа резолюции узла с single-flight: если узел
// уже резолвится, вызов дожидается результата вместо повторной работы.
func (r *Resolver) resolveNode(ctx context.Context, sc *runScope, name string) error {
	n, ok := r.graph.Node(name)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrUnknownNode, name)
	}

	if sc.visiting[name] {
		return wrapResolution(name, ErrDataCycle)
	}

	r.mu.Lock()
	if fl, running := r.inflight[name]; running {
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return wrapResolution(name, ctx.Err())
		case <-fl.done:
		}
		if fl.err == nil {
			sc.cached++
		}
		return fl.err
	}

	if n.State() == graph.StateResolved {
		r.mu.Unlock()
		sc.cached++
		telemetry.NodeResolutionsTotal.WithLabelValues("cached").Inc()
		r.sink.Publish(ctx, sc.event(events.KindNodeCached, name))
		return nil
	}

	fl := &inflightResolution{done: make(chan struct{})}
	r.inflight[name] = fl
	r.mu.Unlock()

	err := r.resolve(ctx, sc, n)

	fl.err = err
	r.mu.Lock()
	delete(r.inflight, name)
	r.mu.Unlock()
	close(fl.done)

	return err
}

// resolve выполняет собственно резолюцию: протягивание входов,
// вызов логики, выполнение отложенной задачи.
func (r *Resolver) resolve(ctx context.Context, sc *runScope, n *graph.Node) error {
	name := n.Name()
	logger := telemetry.WithNode(sc.logger, name)
	started := time.Now()

	n.SetState(graph.StateResolving)
	r.sink.Publish(ctx, sc.event(events.KindNodeResolving, name))

	sc.visiting[name] = true
	defer delete(sc.visiting, name)

	fail := func(cause error) error {
		// Провал не оставляет частичных результатов
		n.ClearOutputs()
		n.SetState(graph.StateUnresolved)

		resErr := wrapResolution(name, cause)
		telemetry.NodeResolutionsTotal.WithLabelValues("failed").Inc()

		ev := sc.event(events.KindNodeFailed, name)
		ev.Message = resErr.Error()
		r.sink.Publish(ctx, ev)

		logger.Error("node resolution failed", "error", cause)
		return resErr
	}

	if err := r.pullInputs(ctx, sc, n); err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if logic := n.Logic(); logic != nil {
		reporter := events.NewSinkReporter(ctx, r.sink, sc.id, name)
		deferred, err := logic.Process(events.WithReporter(ctx, reporter), n)
		if err != nil {
			return fail(err)
		}

		if deferred != nil {
			value, err := r.runner.Run(ctx, deferred.Job)
			if err != nil {
				return fail(err)
			}
			if err := n.SetOutput(deferred.Target, value); err != nil {
				return fail(err)
			}
		}
	}

	n.SetState(graph.StateResolved)
	sc.resolved = append(sc.resolved, name)

	telemetry.NodeResolutionsTotal.WithLabelValues("resolved").Inc()
	telemetry.NodeResolutionSeconds.Observe(time.Since(started).Seconds())
	r.sink.Publish(ctx, sc.event(events.KindNodeResolved, name))

	logger.Debug("node resolved", "duration", time.Since(started))
	return nil
}

// pullInputs протягивает значения во входы узла (spotlight-обход).
//
// Порядок — объявление параметров, либо план логики, если она реализует
// SpotlightPlanner. Вход без соединения пропускается: его значение —
// property или default самого параметра.
func (r *Resolver) pullInputs(ctx context.Context, sc *runScope, n *graph.Node) error {
	pulled := make(map[string]bool)
	planner, hasPlanner := n.Logic().(graph.SpotlightPlanner)

	for {
		var inputName string
		var ok bool
		if hasPlanner {
			inputName, ok = planner.NextInput(n, pulled)
		} else {
			inputName, ok = nextDeclaredInput(n, pulled)
		}
		if !ok {
			return nil
		}

		// Защита от зацикливания планировщика
		if pulled[inputName] {
			return nil
		}
		pulled[inputName] = true

		p, exists := n.Parameter(inputName)
		if !exists || p.IsControl() || !p.AcceptsInput() {
			continue
		}

		source, connected := r.graph.DataSource(n.Name(), inputName)
		if !connected {
			continue
		}

		if err := r.resolveNode(ctx, sc, source.Node); err != nil {
			return err
		}

		sourceNode, exists := r.graph.Node(source.Node)
		if !exists {
			continue
		}
		if err := p.Pull(sourceNode.ValueOf(source.Param)); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// nextDeclaredInput возвращает первый ещё не протянутый вход
// в порядке объявления.
func nextDeclaredInput(n *graph.Node, pulled map[string]bool) (string, bool) {
	for _, p := range n.InputParameters() {
		if !pulled[p.Name()] {
			return p.Name(), true
		}
	}
	return "", false
}

// Invalidate сбрасывает кэш узла и каскадно — всех узлов ниже по данным.
// Последние значения выходов сохраняются до следующей резолюции.
func (r *Resolver) Invalidate(name string) {
	r.invalidate(name, make(map[string]bool))
}

func (r *Resolver) invalidate(name string, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true

	n, ok := r.graph.Node(name)
	if !ok {
		return
	}
	n.SetState(graph.StateUnresolved)

	for _, downstream := range r.graph.DownstreamNodes(name) {
		r.invalidate(downstream, visited)
	}
}

// SetParameterValue устанавливает значение параметра и инвалидирует
// кэш узла вместе с зависимыми: изменение upstream делает кэш ниже
// по данным недействительным.
func (r *Resolver) SetParameterValue(node, parameter string, value any) error {
	n, ok := r.graph.Node(node)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrUnknownNode, node)
	}

	p, ok := n.Parameter(parameter)
	if !ok {
		return fmt.Errorf("%w: %s.%s", graph.ErrUnknownParameter, node, parameter)
	}

	if err := p.SetValue(value); err != nil {
		return err
	}

	r.Invalidate(node)
	return nil
}

// ParameterValue возвращает текущее значение параметра узла.
func (r *Resolver) ParameterValue(node, parameter string) (any, error) {
	n, ok := r.graph.Node(node)
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrUnknownNode, node)
	}

	p, ok := n.Parameter(parameter)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", graph.ErrUnknownParameter, node, parameter)
	}

	return p.Value(), nil
}
