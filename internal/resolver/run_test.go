package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shaiso/Nodeflow/internal/events"
	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/param"
)

func addControl(t *testing.T, n *graph.Node, name string, mode param.Mode) {
	t.Helper()
	p, err := param.NewControl(name, mode)
	if err != nil {
		t.Fatalf("new control %s.%s: %v", n.Name(), name, err)
	}
	if err := n.AddParameter(p); err != nil {
		t.Fatalf("add control %s.%s: %v", n.Name(), name, err)
	}
}

// branchLogic выбирает control-выход по булевому входу condition.
type branchLogic struct{}

func (branchLogic) Process(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
	return nil, nil
}

func (branchLogic) RouteControl(n *graph.Node) (string, bool) {
	condition, ok := n.ValueOf("condition").(bool)
	if !ok {
		return "", false
	}
	if condition {
		return "then", true
	}
	return "else", true
}

// buildBranchFlow собирает граф: start → branch → (then | else),
// причём then-ветка тянет данные из отдельного источника.
func buildBranchFlow(t *testing.T, rec *orderRecorder) *graph.Graph {
	t.Helper()
	g := graph.New()

	start := makeNode(t, g, "start", nil, nil, nil)
	addControl(t, start, "next", param.ModeOutput)

	branch := makeNode(t, g, "branch", branchLogic{}, []string{"condition"}, nil)
	addControl(t, branch, "exec", param.ModeInput)
	addControl(t, branch, "then", param.ModeOutput)
	addControl(t, branch, "else", param.ModeOutput)

	makeNode(t, g, "thenSrc", constLogic(rec, "heavy"), nil, []string{"out"})

	thenNode := makeNode(t, g, "thenNode", passLogic(rec), []string{"in"}, []string{"out"})
	addControl(t, thenNode, "exec", param.ModeInput)

	elseNode := makeNode(t, g, "elseNode", constLogic(rec, "light"), nil, []string{"out"})
	addControl(t, elseNode, "exec", param.ModeInput)

	connect(t, g, "start", "next", "branch", "exec")
	connect(t, g, "branch", "then", "thenNode", "exec")
	connect(t, g, "branch", "else", "elseNode", "exec")
	connect(t, g, "thenSrc", "out", "thenNode", "in")

	return g
}

func TestRun_BranchLeavesOtherSubgraphUnresolved(t *testing.T) {
	rec := &orderRecorder{}
	g := buildBranchFlow(t, rec)

	r := New(Config{Graph: g})
	if err := r.SetParameterValue("branch", "condition", false); err != nil {
		t.Fatalf("set condition: %v", err)
	}

	report, err := r.Run(context.Background(), "start")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Halted {
		t.Errorf("clean branch end should not be a halt: %s", report.HaltReason)
	}
	if report.Steps != 3 {
		t.Errorf("expected 3 control steps, got %d", report.Steps)
	}

	elseNode, _ := g.Node("elseNode")
	if elseNode.State() != graph.StateResolved {
		t.Errorf("taken branch should be RESOLVED, got %s", elseNode.State())
	}

	// Невыбранная ветка и её данные не тронуты
	for _, name := range []string{"thenNode", "thenSrc"} {
		n, _ := g.Node(name)
		if n.State() != graph.StateUnresolved {
			t.Errorf("node %s of untaken branch should be UNRESOLVED, got %s", name, n.State())
		}
	}
}

func TestRun_RouterWithoutDecisionHaltsGracefully(t *testing.T) {
	g := buildBranchFlow(t, nil)

	// condition не задан: роутер не может принять решение
	r := New(Config{Graph: g})
	report, err := r.Run(context.Background(), "start")
	if err != nil {
		t.Fatalf("missing decision must not be an error: %v", err)
	}

	if !report.Halted {
		t.Error("expected graceful halt")
	}
	if report.HaltReason == "" {
		t.Error("halt reason should be recorded")
	}

	branch, _ := g.Node("branch")
	if branch.State() != graph.StateResolved {
		t.Errorf("halting node itself stays RESOLVED, got %s", branch.State())
	}
}

// bogusRouter всегда называет несуществующий выход.
type bogusRouter struct{}

func (bogusRouter) Process(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
	return nil, nil
}

func (bogusRouter) RouteControl(_ *graph.Node) (string, bool) {
	return "no-such-output", true
}

func TestRun_UnknownControlOutputHaltsGracefully(t *testing.T) {
	g := graph.New()

	n := makeNode(t, g, "router", bogusRouter{}, nil, nil)
	addControl(t, n, "a", param.ModeOutput)
	addControl(t, n, "b", param.ModeOutput)

	target := makeNode(t, g, "target", nil, nil, nil)
	addControl(t, target, "exec", param.ModeInput)
	connect(t, g, "router", "a", "target", "exec")

	r := New(Config{Graph: g})
	report, err := r.Run(context.Background(), "router")
	if err != nil {
		t.Fatalf("unknown output must not be an error: %v", err)
	}
	if !report.Halted {
		t.Error("expected graceful halt on unknown control output")
	}

	if target.State() != graph.StateUnresolved {
		t.Errorf("no edge should have fired, target is %s", target.State())
	}
}

// invalidLogic всегда проваливает предварительную валидацию.
type invalidLogic struct {
	problems []error
}

func (l *invalidLogic) Process(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
	return nil, nil
}

func (l *invalidLogic) ValidateBeforeRun(_ *graph.Node) []error {
	return l.problems
}

func TestRun_ValidationBlocksWholeRun(t *testing.T) {
	g := graph.New()
	rec := &orderRecorder{}

	makeNode(t, g, "ok", constLogic(rec, 1), nil, []string{"out"})
	makeNode(t, g, "broken", &invalidLogic{problems: []error{errors.New("missing credentials")}},
		nil, []string{"out"})

	r := New(Config{Graph: g})
	_, err := r.Run(context.Background(), "ok")
	if !errors.Is(err, ErrRunBlocked) {
		t.Fatalf("expected ErrRunBlocked, got %v", err)
	}

	var preRun *PreRunError
	if !errors.As(err, &preRun) {
		t.Fatalf("expected PreRunError, got %T", err)
	}
	if len(preRun.Failures) != 1 || preRun.Failures[0].Node != "broken" {
		t.Errorf("expected failure attributed to broken, got %+v", preRun.Failures)
	}

	// Ни один узел не начал выполняться
	if got := rec.list(); len(got) != 0 {
		t.Errorf("no logic should run when validation fails, got %v", got)
	}
}

func TestRun_ControlLoopHaltsAfterRefire(t *testing.T) {
	g := graph.New()

	a := makeNode(t, g, "a", nil, nil, nil)
	addControl(t, a, "exec", param.ModeInput)
	addControl(t, a, "next", param.ModeOutput)

	b := makeNode(t, g, "b", nil, nil, nil)
	addControl(t, b, "exec", param.ModeInput)
	addControl(t, b, "next", param.ModeOutput)

	connect(t, g, "a", "next", "b", "exec")
	connect(t, g, "b", "next", "a", "exec")

	r := New(Config{Graph: g})
	report, err := r.Run(context.Background(), "a")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Halted {
		t.Error("expected halt when a control edge fires twice")
	}
	if report.Steps != 3 {
		t.Errorf("expected a, b, a then halt (3 steps), got %d", report.Steps)
	}
}

func TestRun_FailureReturnsReportAndError(t *testing.T) {
	g := graph.New()
	boom := errors.New("boom")

	failing := graph.LogicFunc(func(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
		return nil, boom
	})
	makeNode(t, g, "only", failing, nil, []string{"out"})

	r := New(Config{Graph: g})
	report, err := r.Run(context.Background(), "only")
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if report == nil {
		t.Fatal("report should accompany the error")
	}
	if len(report.Resolved) != 0 {
		t.Errorf("nothing resolved, got %v", report.Resolved)
	}
}

func TestRun_UnknownStartNode(t *testing.T) {
	r := New(Config{Graph: graph.New()})
	_, err := r.Run(context.Background(), "ghost")
	if !errors.Is(err, graph.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

// collectSink накапливает опубликованные события.
type collectSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *collectSink) Publish(_ context.Context, ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *collectSink) kinds() []events.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Kind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

func TestRun_EmitsLifecycleEvents(t *testing.T) {
	g := graph.New()
	makeNode(t, g, "only", constLogic(nil, 1), nil, []string{"out"})

	sink := &collectSink{}
	r := New(Config{Graph: g, Sink: sink})
	if _, err := r.Run(context.Background(), "only"); err != nil {
		t.Fatalf("run: %v", err)
	}

	kinds := sink.kinds()
	if len(kinds) < 4 {
		t.Fatalf("expected lifecycle events, got %v", kinds)
	}
	if kinds[0] != events.KindRunStarted {
		t.Errorf("first event should be run.started, got %s", kinds[0])
	}
	if kinds[len(kinds)-1] != events.KindRunSucceeded {
		t.Errorf("last event should be run.succeeded, got %s", kinds[len(kinds)-1])
	}

	var sawResolving, sawResolved bool
	for _, k := range kinds {
		switch k {
		case events.KindNodeResolving:
			sawResolving = true
		case events.KindNodeResolved:
			sawResolved = true
		}
	}
	if !sawResolving || !sawResolved {
		t.Errorf("expected node lifecycle events, got %v", kinds)
	}
}
