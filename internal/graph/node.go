package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/shaiso/Nodeflow/internal/param"
	"github.com/shaiso/Nodeflow/internal/task"
)

// ResolutionState — состояние готовности узла.
//
// Жизненный цикл:
//
//	UNRESOLVED → RESOLVING → RESOLVED
//	           ↖ (ошибка либо изменение upstream-значения)
type ResolutionState string

const (
	// StateUnresolved — узел не вычислен либо его кэш инвалидирован.
	StateUnresolved ResolutionState = "UNRESOLVED"

	// StateResolving — планировщик протягивает входы узла.
	StateResolving ResolutionState = "RESOLVING"

	// StateResolved — логика узла произвела все выходы; кэш валиден.
	StateResolved ResolutionState = "RESOLVED"
)

// Deferred — отложенная единица работы, возвращённая логикой узла.
//
// Планировщик передаёт Job в task.Runner; готовое значение записывается
// в output-параметр Target.
type Deferred struct {
	// Job — внешняя задача по протоколу submit → poll → retrieve.
	Job task.Job

	// Target — имя output-параметра для итогового значения.
	Target string
}

// Logic — логика обработки узла.
//
// Process вызывается планировщиком, когда все требуемые входы протянуты.
// Синхронная логика пишет выходы через n.SetOutput и возвращает (nil, nil);
// асинхронная возвращает Deferred.
type Logic interface {
	Process(ctx context.Context, n *Node) (*Deferred, error)
}

// LogicFunc — адаптер обычной функции к интерфейсу Logic.
type LogicFunc func(ctx context.Context, n *Node) (*Deferred, error)

// Process реализует интерфейс Logic.
func (f LogicFunc) Process(ctx context.Context, n *Node) (*Deferred, error) {
	return f(ctx, n)
}

// Validator — необязательный интерфейс логики: валидация до старта run.
// Непустой список ошибок блокирует запуск целиком (fail-fast).
type Validator interface {
	ValidateBeforeRun(n *Node) []error
}

// Router — необязательный интерфейс логики: выбор control-выхода
// после выполнения узла. ok == false — корректная остановка ветки.
type Router interface {
	RouteControl(n *Node) (output string, ok bool)
}

// SpotlightPlanner — необязательный интерфейс логики: порядок протягивания
// входов. Позволяет пропускать входы по условию (short-circuit).
// pulled содержит имена уже протянутых входов.
type SpotlightPlanner interface {
	NextInput(n *Node, pulled map[string]bool) (name string, ok bool)
}

// ConnectionVetoer — необязательный интерфейс логики: право вето
// на создание соединения со своим параметром own.
type ConnectionVetoer interface {
	AllowConnection(n *Node, own *param.Parameter, peer *Node, peerParam *param.Parameter, incoming bool) error
}

// ConnectionObserver — необязательный интерфейс логики: уведомление
// об изменении набора соединений узла (после connect/disconnect).
// Граф передаётся для перечисления актуальных соединений.
type ConnectionObserver interface {
	ConnectionsChanged(g *Graph, n *Node)
}

// Node — узел графа.
//
// Узел владеет упорядоченным набором параметров; порядок вставки определяет
// порядок spotlight-обхода и разрешение ничьих при резолюции.
type Node struct {
	name  string
	logic Logic

	// params — параметры в порядке вставки (включая control-слоты).
	params  []*param.Parameter
	byName  map[string]*param.Parameter

	// state — состояние резолюции, под мьютексом:
	// параллельные runs разделяют узлы графа.
	stateMu sync.RWMutex
	state   ResolutionState
}

// NodeConfig — конфигурация Node.
type NodeConfig struct {
	// Name — имя узла, уникальное в пределах графа.
	Name string

	// Logic — логика обработки. Допустим nil для чисто транзитных узлов.
	Logic Logic
}

// NewNode создаёт новый Node.
func NewNode(cfg NodeConfig) (*Node, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyNodeName
	}

	return &Node{
		name:   cfg.Name,
		logic:  cfg.Logic,
		byName: make(map[string]*param.Parameter),
		state:  StateUnresolved,
	}, nil
}

// Name возвращает имя узла.
func (n *Node) Name() string { return n.name }

// Logic возвращает логику узла (может быть nil).
func (n *Node) Logic() Logic { return n.logic }

// AddParameter добавляет параметр. Имена параметров узла уникальны.
func (n *Node) AddParameter(p *param.Parameter) error {
	if _, exists := n.byName[p.Name()]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateParameter, n.name, p.Name())
	}
	n.params = append(n.params, p)
	n.byName[p.Name()] = p
	return nil
}

// Parameter возвращает параметр по имени.
func (n *Node) Parameter(name string) (*param.Parameter, bool) {
	p, ok := n.byName[name]
	return p, ok
}

// Parameters возвращает параметры в порядке вставки.
func (n *Node) Parameters() []*param.Parameter {
	out := make([]*param.Parameter, len(n.params))
	copy(out, n.params)
	return out
}

// InputParameters возвращает data-параметры с режимом Input в порядке вставки.
// Это spotlight-порядок по умолчанию.
func (n *Node) InputParameters() []*param.Parameter {
	var out []*param.Parameter
	for _, p := range n.params {
		if !p.IsControl() && p.AcceptsInput() {
			out = append(out, p)
		}
	}
	return out
}

// OutputParameters возвращает data-параметры с режимом Output в порядке вставки.
func (n *Node) OutputParameters() []*param.Parameter {
	var out []*param.Parameter
	for _, p := range n.params {
		if !p.IsControl() && p.ProducesOutput() {
			out = append(out, p)
		}
	}
	return out
}

// ControlInputs возвращает control-слоты с режимом Input.
func (n *Node) ControlInputs() []*param.Parameter {
	var out []*param.Parameter
	for _, p := range n.params {
		if p.IsControl() && p.AcceptsInput() {
			out = append(out, p)
		}
	}
	return out
}

// ControlOutputs возвращает control-слоты с режимом Output.
func (n *Node) ControlOutputs() []*param.Parameter {
	var out []*param.Parameter
	for _, p := range n.params {
		if p.IsControl() && p.ProducesOutput() {
			out = append(out, p)
		}
	}
	return out
}

// State возвращает текущее состояние резолюции.
func (n *Node) State() ResolutionState {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.state
}

// SetState переводит узел в состояние state.
func (n *Node) SetState(state ResolutionState) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.state = state
}

// SetOutput записывает значение в output-параметр name.
// Вызывается логикой узла из Process.
func (n *Node) SetOutput(name string, value any) error {
	p, ok := n.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParameter, n.name, name)
	}
	if !p.ProducesOutput() {
		return fmt.Errorf("%w: %s.%s is not an output", ErrModeViolation, n.name, name)
	}
	return p.Pull(value)
}

// ClearOutputs сбрасывает все output-параметры к значениям по умолчанию.
// Вызывается планировщиком при откате упавшего узла: частично записанные
// выходы не должны быть наблюдаемы.
func (n *Node) ClearOutputs() {
	for _, p := range n.params {
		if !p.IsControl() && p.ProducesOutput() {
			p.Clear()
		}
	}
}

// ValueOf возвращает значение параметра name (или default).
// Вспомогательный доступ для логики узла.
func (n *Node) ValueOf(name string) any {
	p, ok := n.byName[name]
	if !ok {
		return nil
	}
	return p.Value()
}
