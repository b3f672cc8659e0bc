package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/param"
	"github.com/shaiso/Nodeflow/internal/task"
)

// orderRecorder накапливает порядок вызова логики узлов.
type orderRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *orderRecorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *orderRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// makeNode создаёт узел с data-входами ins и data-выходами outs
// и добавляет его в граф.
func makeNode(t *testing.T, g *graph.Graph, name string, logic graph.Logic, ins, outs []string) *graph.Node {
	t.Helper()

	n, err := graph.NewNode(graph.NodeConfig{Name: name, Logic: logic})
	if err != nil {
		t.Fatalf("new node %s: %v", name, err)
	}
	for _, in := range ins {
		p := param.MustNew(param.Config{Name: in, Modes: param.ModeInput | param.ModeProperty})
		if err := n.AddParameter(p); err != nil {
			t.Fatalf("add parameter %s.%s: %v", name, in, err)
		}
	}
	for _, out := range outs {
		p := param.MustNew(param.Config{Name: out, Modes: param.ModeOutput})
		if err := n.AddParameter(p); err != nil {
			t.Fatalf("add parameter %s.%s: %v", name, out, err)
		}
	}
	if err := g.AddNode(n); err != nil {
		t.Fatalf("add node %s: %v", name, err)
	}
	return n
}

func connect(t *testing.T, g *graph.Graph, srcNode, srcParam, dstNode, dstParam string) {
	t.Helper()
	err := g.Connect(
		graph.Endpoint{Node: srcNode, Param: srcParam},
		graph.Endpoint{Node: dstNode, Param: dstParam},
	)
	if err != nil {
		t.Fatalf("connect %s.%s -> %s.%s: %v", srcNode, srcParam, dstNode, dstParam, err)
	}
}

// constLogic записывает value в выход out.
func constLogic(rec *orderRecorder, value any) graph.Logic {
	return graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
		if rec != nil {
			rec.add(n.Name())
		}
		return nil, n.SetOutput("out", value)
	})
}

// passLogic копирует вход in в выход out.
func passLogic(rec *orderRecorder) graph.Logic {
	return graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
		if rec != nil {
			rec.add(n.Name())
		}
		return nil, n.SetOutput("out", n.ValueOf("in"))
	})
}

func TestResolver_TopologicalPull(t *testing.T) {
	g := graph.New()
	rec := &orderRecorder{}

	makeNode(t, g, "a", constLogic(rec, 7), nil, []string{"out"})
	makeNode(t, g, "b", passLogic(rec), []string{"in"}, []string{"out"})
	makeNode(t, g, "c", passLogic(rec), []string{"in"}, []string{"out"})
	connect(t, g, "a", "out", "b", "in")
	connect(t, g, "b", "out", "c", "in")

	r := New(Config{Graph: g})
	if err := r.ResolveNode(context.Background(), "c"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	got := rec.list()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	value, err := r.ParameterValue("c", "out")
	if err != nil {
		t.Fatalf("parameter value: %v", err)
	}
	if value != 7 {
		t.Errorf("expected 7 at c.out, got %v", value)
	}
}

func TestResolver_CachedReplaySkipsLogic(t *testing.T) {
	g := graph.New()
	rec := &orderRecorder{}

	makeNode(t, g, "a", constLogic(rec, "x"), nil, []string{"out"})
	makeNode(t, g, "b", passLogic(rec), []string{"in"}, []string{"out"})
	connect(t, g, "a", "out", "b", "in")

	r := New(Config{Graph: g})
	for i := 0; i < 3; i++ {
		if err := r.ResolveNode(context.Background(), "b"); err != nil {
			t.Fatalf("resolve #%d: %v", i+1, err)
		}
	}

	// Логика каждого узла вызвана один раз, остальное — кэш
	if got := rec.list(); len(got) != 2 {
		t.Errorf("expected 2 logic invocations, got %d: %v", len(got), got)
	}
}

func TestResolver_InvalidationCascadesDownstream(t *testing.T) {
	g := graph.New()
	rec := &orderRecorder{}

	makeNode(t, g, "a", passLogic(rec), []string{"in"}, []string{"out"})
	makeNode(t, g, "b", passLogic(rec), []string{"in"}, []string{"out"})
	makeNode(t, g, "c", passLogic(rec), []string{"in"}, []string{"out"})
	connect(t, g, "a", "out", "b", "in")
	connect(t, g, "b", "out", "c", "in")

	r := New(Config{Graph: g})
	if err := r.SetParameterValue("a", "in", 1); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := r.ResolveNode(context.Background(), "c"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := r.SetParameterValue("a", "in", 2); err != nil {
		t.Fatalf("set value: %v", err)
	}

	for _, name := range []string{"a", "b", "c"} {
		n, _ := g.Node(name)
		if n.State() != graph.StateUnresolved {
			t.Errorf("node %s should be UNRESOLVED after upstream change, got %s", name, n.State())
		}
	}

	if err := r.ResolveNode(context.Background(), "c"); err != nil {
		t.Fatalf("re-resolve: %v", err)
	}

	value, _ := r.ParameterValue("c", "out")
	if value != 2 {
		t.Errorf("expected new value 2 to propagate, got %v", value)
	}
	// Вся цепочка пересчитана заново
	if got := rec.list(); len(got) != 6 {
		t.Errorf("expected 6 total invocations, got %d: %v", len(got), got)
	}
}

func TestResolver_FailureClearsOutputs(t *testing.T) {
	g := graph.New()
	boom := errors.New("boom")

	failing := graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
		// Частичный результат до ошибки
		if err := n.SetOutput("out", "partial"); err != nil {
			return nil, err
		}
		return nil, boom
	})

	makeNode(t, g, "a", constLogic(nil, 1), nil, []string{"out"})
	makeNode(t, g, "b", failing, []string{"in"}, []string{"out"})
	connect(t, g, "a", "out", "b", "in")

	r := New(Config{Graph: g})
	err := r.ResolveNode(context.Background(), "b")
	if err == nil {
		t.Fatal("expected error")
	}

	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %T: %v", err, err)
	}
	if resErr.Node != "b" {
		t.Errorf("expected originating node b, got %s", resErr.Node)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}

	// Частичные результаты не наблюдаемы
	b, _ := g.Node("b")
	if b.State() != graph.StateUnresolved {
		t.Errorf("failed node should revert to UNRESOLVED, got %s", b.State())
	}
	if value := b.ValueOf("out"); value != nil {
		t.Errorf("failed node outputs should be cleared, got %v", value)
	}

	// Upstream остаётся resolved
	a, _ := g.Node("a")
	if a.State() != graph.StateResolved {
		t.Errorf("upstream should stay RESOLVED, got %s", a.State())
	}
}

func TestResolver_UpstreamFailureKeepsOrigin(t *testing.T) {
	g := graph.New()
	boom := errors.New("boom")

	failing := graph.LogicFunc(func(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
		return nil, boom
	})

	makeNode(t, g, "a", failing, nil, []string{"out"})
	makeNode(t, g, "b", passLogic(nil), []string{"in"}, []string{"out"})
	connect(t, g, "a", "out", "b", "in")

	r := New(Config{Graph: g})
	err := r.ResolveNode(context.Background(), "b")

	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	// Идентичность исходного узла сохранена при каскаде
	if resErr.Node != "a" {
		t.Errorf("expected originating node a, got %s", resErr.Node)
	}

	b, _ := g.Node("b")
	if b.State() != graph.StateUnresolved {
		t.Errorf("downstream node should revert to UNRESOLVED, got %s", b.State())
	}
}

// shortCircuitPlanner протягивает только вход pick.
type shortCircuitPlanner struct {
	pick string
}

func (p *shortCircuitPlanner) Process(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
	return nil, n.SetOutput("out", n.ValueOf(p.pick))
}

func (p *shortCircuitPlanner) NextInput(_ *graph.Node, pulled map[string]bool) (string, bool) {
	if pulled[p.pick] {
		return "", false
	}
	return p.pick, true
}

func TestResolver_PlannerShortCircuitsInputs(t *testing.T) {
	g := graph.New()
	rec := &orderRecorder{}

	makeNode(t, g, "cheap", constLogic(rec, "c"), nil, []string{"out"})
	makeNode(t, g, "expensive", constLogic(rec, "e"), nil, []string{"out"})
	makeNode(t, g, "select", &shortCircuitPlanner{pick: "first"},
		[]string{"first", "second"}, []string{"out"})
	connect(t, g, "cheap", "out", "select", "first")
	connect(t, g, "expensive", "out", "select", "second")

	r := New(Config{Graph: g})
	if err := r.ResolveNode(context.Background(), "select"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	expensive, _ := g.Node("expensive")
	if expensive.State() != graph.StateUnresolved {
		t.Errorf("skipped branch should stay UNRESOLVED, got %s", expensive.State())
	}
	for _, name := range rec.list() {
		if name == "expensive" {
			t.Error("expensive node should not have been invoked")
		}
	}
}

func TestResolver_DataCycleDetected(t *testing.T) {
	g := graph.New()

	makeNode(t, g, "a", passLogic(nil), []string{"in"}, []string{"out"})
	makeNode(t, g, "b", passLogic(nil), []string{"in"}, []string{"out"})
	connect(t, g, "a", "out", "b", "in")
	connect(t, g, "b", "out", "a", "in")

	r := New(Config{Graph: g})
	err := r.ResolveNode(context.Background(), "a")
	if !errors.Is(err, ErrDataCycle) {
		t.Fatalf("expected ErrDataCycle, got %v", err)
	}
}

func TestResolver_DeferredJobFillsTarget(t *testing.T) {
	g := graph.New()

	job := &fakeJob{succeedAfter: 2, result: "deferred-result"}
	deferred := graph.LogicFunc(func(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
		return &graph.Deferred{Job: job, Target: "out"}, nil
	})
	makeNode(t, g, "async", deferred, nil, []string{"out"})

	r := New(Config{
		Graph:  g,
		Runner: task.New(task.Config{PollInterval: time.Millisecond, MaxAttempts: 10}),
	})
	if err := r.ResolveNode(context.Background(), "async"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	value, _ := r.ParameterValue("async", "out")
	if value != "deferred-result" {
		t.Errorf("expected deferred result in target output, got %v", value)
	}
}

func TestResolver_DeferredTimeoutFailsNode(t *testing.T) {
	g := graph.New()

	job := &fakeJob{succeedAfter: 100, result: "never"}
	deferred := graph.LogicFunc(func(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
		return &graph.Deferred{Job: job, Target: "out"}, nil
	})
	makeNode(t, g, "async", deferred, nil, []string{"out"})

	r := New(Config{
		Graph:  g,
		Runner: task.New(task.Config{PollInterval: time.Millisecond, MaxAttempts: 3}),
	})
	err := r.ResolveNode(context.Background(), "async")
	if !errors.Is(err, task.ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}

	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Node != "async" {
		t.Errorf("timeout should carry node identity, got %v", err)
	}

	n, _ := g.Node("async")
	if n.State() != graph.StateUnresolved {
		t.Errorf("timed out node should revert to UNRESOLVED, got %s", n.State())
	}
}

func TestResolver_CancellationStopsResolution(t *testing.T) {
	g := graph.New()
	rec := &orderRecorder{}

	makeNode(t, g, "a", constLogic(rec, 1), nil, []string{"out"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Config{Graph: g})
	err := r.ResolveNode(ctx, "a")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	n, _ := g.Node("a")
	if n.State() != graph.StateUnresolved {
		t.Errorf("cancelled node should revert to UNRESOLVED, got %s", n.State())
	}
}

func TestResolver_SingleFlightPerNode(t *testing.T) {
	g := graph.New()

	var calls atomic.Int32
	slow := graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return nil, n.SetOutput("out", "done")
	})
	makeNode(t, g, "slow", slow, nil, []string{"out"})

	r := New(Config{Graph: g})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.ResolveNode(context.Background(), "slow")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: unexpected error: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one logic invocation, got %d", got)
	}
}

func TestResolver_UnknownNode(t *testing.T) {
	r := New(Config{Graph: graph.New()})
	err := r.ResolveNode(context.Background(), "ghost")
	if !errors.Is(err, graph.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

// fakeJob — внешняя задача с управляемым числом опросов до успеха.
type fakeJob struct {
	succeedAfter int
	result       any

	polls atomic.Int32
}

func (j *fakeJob) Submit(_ context.Context) (string, error) {
	return "job-1", nil
}

func (j *fakeJob) Poll(_ context.Context, _ string) (task.Status, error) {
	if int(j.polls.Add(1)) >= j.succeedAfter {
		return task.Status{State: task.StateSucceeded, Handle: "h"}, nil
	}
	return task.Status{State: task.StatePending}, nil
}

func (j *fakeJob) Retrieve(_ context.Context, _ string) (any, error) {
	return j.result, nil
}
