package nodes

import (
	"context"
	"sync"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
)

// RerouteDefinition — сквозной транзитный узел.
//
// Параметры in/out объявлены как any и негоциируют конкретный тип
// по подключённым соседям: первое конкретное соединение фиксирует тип,
// несовместимое отклоняется вето, отключение регрессирует тип обратно.
func RerouteDefinition() *library.Definition {
	return &library.Definition{
		Type: "reroute",
		Params: []param.Config{
			{Name: "in", Type: param.TypeAny, Modes: param.ModeInput},
			{Name: "out", Type: param.TypeAny, Modes: param.ModeOutput},
		},
		NewLogic: func() graph.Logic { return newRerouteLogic() },
	}
}

type rerouteLogic struct {
	mu sync.Mutex
	ng *graph.Negotiator
}

func newRerouteLogic() *rerouteLogic {
	return &rerouteLogic{ng: graph.NewNegotiator("in", "out")}
}

// Process реализует интерфейс graph.Logic.
func (l *rerouteLogic) Process(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
	return nil, n.SetOutput("out", n.ValueOf("in"))
}

// AllowConnection реализует интерфейс graph.ConnectionVetoer:
// вклад нового соседа обязан пересекаться с текущим множеством типов.
func (l *rerouteLogic) AllowConnection(_ *graph.Node, _ *param.Parameter, peer *graph.Node, peerParam *param.Parameter, _ bool) error {
	if peerParam.IsControl() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := peer.Name() + "." + peerParam.Name()
	if err := l.ng.Offer(key, peerParam.Type()); err != nil {
		return err
	}
	// Пробный вклад: фактическое состояние пересчитает ConnectionsChanged
	l.ng.Withdraw(key)
	return nil
}

// ConnectionsChanged реализует интерфейс graph.ConnectionObserver:
// негоциатор пересобирается из актуальных соединений, затем
// перетегирует in/out.
func (l *rerouteLogic) ConnectionsChanged(g *graph.Graph, n *graph.Node) {
	ng := graph.NewNegotiator("in", "out")

	offer := func(e graph.Endpoint) {
		peer, ok := g.Node(e.Node)
		if !ok {
			return
		}
		p, ok := peer.Parameter(e.Param)
		if !ok {
			return
		}
		// Конфликт невозможен: соединение уже прошло вето
		_ = ng.Offer(e.String(), p.Type())
	}

	if source, ok := g.DataSource(n.Name(), "in"); ok {
		offer(source)
	}
	for _, target := range g.DataTargets(n.Name(), "out") {
		offer(target)
	}

	l.mu.Lock()
	l.ng = ng
	l.mu.Unlock()

	ng.Apply(n)
}

// TypeState возвращает текущее состояние негоциации (для UI и тестов).
func (l *rerouteLogic) TypeState() graph.TypeState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ng.State()
}
