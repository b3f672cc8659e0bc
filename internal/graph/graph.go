package graph

import (
	"fmt"
	"sync"

	"github.com/shaiso/Nodeflow/internal/param"
)

// Endpoint — конец соединения: пара (узел, параметр).
type Endpoint struct {
	Node  string
	Param string
}

// String возвращает конец в виде "node.param".
func (e Endpoint) String() string {
	return e.Node + "." + e.Param
}

// Graph — граф узлов с индексами data- и control-рёбер.
//
// Индексы:
//   - dataOut:  источник → список целей (fan-out разрешён)
//   - dataIn:   цель → источник (не более одного входящего data-ребра)
//   - ctrlOut:  control-выход → цель (не более одной цели на выход)
//   - ctrlIn:   control-вход → список источников (сходящиеся пути)
//
// Добавление и удаление ребра — O(1) обновление индексов.
// Запросы по отсутствующим узлам/параметрам возвращают false, а не ошибку:
// отсутствие соединений — нормальное состояние.
type Graph struct {
	mu sync.RWMutex

	nodes map[string]*Node
	order []*Node // порядок добавления — для детерминированных обходов

	dataOut map[Endpoint][]Endpoint
	dataIn  map[Endpoint]Endpoint
	ctrlOut map[Endpoint]Endpoint
	ctrlIn  map[Endpoint][]Endpoint
}

// New создаёт пустой Graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		dataOut: make(map[Endpoint][]Endpoint),
		dataIn:  make(map[Endpoint]Endpoint),
		ctrlOut: make(map[Endpoint]Endpoint),
		ctrlIn:  make(map[Endpoint][]Endpoint),
	}
}

// AddNode добавляет узел в граф. Имена узлов уникальны.
func (g *Graph) AddNode(n *Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name())
	}

	g.nodes[n.Name()] = n
	g.order = append(g.order, n)
	return nil
}

// Node возвращает узел по имени.
func (g *Graph) Node(name string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes возвращает узлы в порядке добавления.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// Size возвращает количество узлов в графе.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Connect создаёт соединение между параметрами source и target.
//
// Разновидность ребра (data/control) определяется типами концов.
// Порядок проверок: структура → режимы → типы → занятость концов →
// вето обоих узлов. Любой отказ оставляет граф без изменений.
func (g *Graph) Connect(source, target Endpoint) error {
	srcNode, dstNode, err := g.connect(source, target)
	if err != nil {
		return err
	}

	// Уведомления вне мьютекса: наблюдатель вправе читать граф
	g.notifyConnectionsChanged(srcNode)
	g.notifyConnectionsChanged(dstNode)

	return nil
}

func (g *Graph) connect(source, target Endpoint) (*Node, *Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	srcNode, srcParam, dstNode, dstParam, err := g.lookup(source, target)
	if err != nil {
		return nil, nil, err
	}

	if srcNode == dstNode {
		return nil, nil, newConnectionError(source, target, "source and target share a node", ErrSelfConnection)
	}

	// Режимы: источник производит выход, цель принимает вход
	if !srcParam.ProducesOutput() {
		return nil, nil, newConnectionError(source, target, "source does not produce output", ErrModeViolation)
	}
	if !dstParam.AcceptsInput() {
		return nil, nil, newConnectionError(source, target, "target does not accept input", ErrModeViolation)
	}

	// Типы: control только с control, data по тегам
	if !param.Compatible(srcParam.Type(), dstParam.Type()) {
		return nil, nil, newConnectionError(source, target,
			fmt.Sprintf("type %s does not match %s", srcParam.Type(), dstParam.Type()), ErrTypeMismatch)
	}

	isControl := srcParam.IsControl()

	// Занятость концов
	if isControl {
		if _, exists := g.ctrlOut[source]; exists {
			return nil, nil, newConnectionError(source, target, "control output already routed", ErrAlreadyConnected)
		}
	} else {
		if _, exists := g.dataIn[target]; exists {
			return nil, nil, newConnectionError(source, target, "target already has a data source", ErrAlreadyConnected)
		}
	}

	// Вето обоих узлов
	if err := allowConnection(srcNode, srcParam, dstNode, dstParam, false); err != nil {
		return nil, nil, newConnectionError(source, target, err.Error(), ErrVetoed)
	}
	if err := allowConnection(dstNode, dstParam, srcNode, srcParam, true); err != nil {
		return nil, nil, newConnectionError(source, target, err.Error(), ErrVetoed)
	}

	// Обновляем индексы
	if isControl {
		g.ctrlOut[source] = target
		g.ctrlIn[target] = append(g.ctrlIn[target], source)
	} else {
		g.dataOut[source] = append(g.dataOut[source], target)
		g.dataIn[target] = source
	}

	return srcNode, dstNode, nil
}

// Disconnect удаляет соединение между source и target.
func (g *Graph) Disconnect(source, target Endpoint) error {
	srcNode, dstNode, err := g.disconnect(source, target)
	if err != nil {
		return err
	}

	g.notifyConnectionsChanged(srcNode)
	g.notifyConnectionsChanged(dstNode)

	return nil
}

func (g *Graph) disconnect(source, target Endpoint) (*Node, *Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	srcNode, srcParam, dstNode, _, err := g.lookup(source, target)
	if err != nil {
		return nil, nil, err
	}

	if srcParam.IsControl() {
		existing, ok := g.ctrlOut[source]
		if !ok || existing != target {
			return nil, nil, newConnectionError(source, target, "no such control edge", ErrNotConnected)
		}
		delete(g.ctrlOut, source)
		g.ctrlIn[target] = removeEndpoint(g.ctrlIn[target], source)
		if len(g.ctrlIn[target]) == 0 {
			delete(g.ctrlIn, target)
		}
	} else {
		existing, ok := g.dataIn[target]
		if !ok || existing != source {
			return nil, nil, newConnectionError(source, target, "no such data edge", ErrNotConnected)
		}
		delete(g.dataIn, target)
		g.dataOut[source] = removeEndpoint(g.dataOut[source], target)
		if len(g.dataOut[source]) == 0 {
			delete(g.dataOut, source)
		}
	}

	return srcNode, dstNode, nil
}

// HasOutgoing проверяет, есть ли исходящие рёбра у параметра.
// Для неизвестных узлов и параметров возвращает false.
func (g *Graph) HasOutgoing(node, parameter string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e := Endpoint{Node: node, Param: parameter}
	if len(g.dataOut[e]) > 0 {
		return true
	}
	_, ok := g.ctrlOut[e]
	return ok
}

// HasIncoming проверяет, есть ли входящие рёбра у параметра.
// Для неизвестных узлов и параметров возвращает false.
func (g *Graph) HasIncoming(node, parameter string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e := Endpoint{Node: node, Param: parameter}
	if _, ok := g.dataIn[e]; ok {
		return true
	}
	return len(g.ctrlIn[e]) > 0
}

// DataSource возвращает источник входящего data-ребра цели.
func (g *Graph) DataSource(node, parameter string) (Endpoint, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	source, ok := g.dataIn[Endpoint{Node: node, Param: parameter}]
	return source, ok
}

// DataTargets возвращает цели исходящих data-рёбер источника.
func (g *Graph) DataTargets(node, parameter string) []Endpoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	targets := g.dataOut[Endpoint{Node: node, Param: parameter}]
	out := make([]Endpoint, len(targets))
	copy(out, targets)
	return out
}

// ControlTarget возвращает цель control-выхода.
func (g *Graph) ControlTarget(node, output string) (Endpoint, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	target, ok := g.ctrlOut[Endpoint{Node: node, Param: output}]
	return target, ok
}

// DownstreamNodes возвращает имена узлов, в которые ведут data-рёбра
// из выходов узла node. Используется при инвалидации кэшей.
func (g *Graph) DownstreamNodes(node string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string

	n, ok := g.nodes[node]
	if !ok {
		return nil
	}

	for _, p := range n.Parameters() {
		for _, target := range g.dataOut[Endpoint{Node: node, Param: p.Name()}] {
			if !seen[target.Node] {
				seen[target.Node] = true
				out = append(out, target.Node)
			}
		}
	}
	return out
}

// lookup разрешает оба конца соединения в узлы и параметры.
func (g *Graph) lookup(source, target Endpoint) (*Node, *param.Parameter, *Node, *param.Parameter, error) {
	srcNode, ok := g.nodes[source.Node]
	if !ok {
		return nil, nil, nil, nil, newConnectionError(source, target, "source node not found", ErrUnknownNode)
	}
	dstNode, ok := g.nodes[target.Node]
	if !ok {
		return nil, nil, nil, nil, newConnectionError(source, target, "target node not found", ErrUnknownNode)
	}

	srcParam, ok := srcNode.Parameter(source.Param)
	if !ok {
		return nil, nil, nil, nil, newConnectionError(source, target, "source parameter not found", ErrUnknownParameter)
	}
	dstParam, ok := dstNode.Parameter(target.Param)
	if !ok {
		return nil, nil, nil, nil, newConnectionError(source, target, "target parameter not found", ErrUnknownParameter)
	}

	return srcNode, srcParam, dstNode, dstParam, nil
}

// allowConnection спрашивает вето у логики узла, если она его реализует.
func allowConnection(n *Node, own *param.Parameter, peer *Node, peerParam *param.Parameter, incoming bool) error {
	vetoer, ok := n.Logic().(ConnectionVetoer)
	if !ok {
		return nil
	}
	return vetoer.AllowConnection(n, own, peer, peerParam, incoming)
}

// notifyConnectionsChanged уведомляет логику узла об изменении соединений.
func (g *Graph) notifyConnectionsChanged(n *Node) {
	observer, ok := n.Logic().(ConnectionObserver)
	if !ok {
		return
	}
	observer.ConnectionsChanged(g, n)
}

// removeEndpoint удаляет конец из среза с сохранением порядка.
func removeEndpoint(endpoints []Endpoint, e Endpoint) []Endpoint {
	for i, candidate := range endpoints {
		if candidate == e {
			return append(endpoints[:i], endpoints[i+1:]...)
		}
	}
	return endpoints
}
