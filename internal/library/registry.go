package library

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/param"
)

// ControlSlot — control-слот в схеме типа узла.
type ControlSlot struct {
	// Name — имя слота.
	Name string

	// Mode — ModeInput или ModeOutput.
	Mode param.Mode
}

// Definition — определение типа узла.
type Definition struct {
	// Type — имя типа, уникальное в библиотеке.
	Type string

	// Params — схема data-параметров. Порядок объявления определяет
	// spotlight-порядок резолюции.
	Params []param.Config

	// Controls — control-слоты узла.
	Controls []ControlSlot

	// NewLogic — фабрика логики. nil для чисто транзитных узлов.
	// Каждый узел получает собственный экземпляр: логика может
	// держать состояние (негоциатор, счётчики).
	NewLogic func() graph.Logic
}

// Registry — библиотека зарегистрированных типов узлов.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry создаёт пустой Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register добавляет определение типа.
func (r *Registry) Register(def *Definition) error {
	if def.Type == "" {
		return ErrEmptyType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Type]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, def.Type)
	}
	r.defs[def.Type] = def
	return nil
}

// Lookup возвращает определение типа.
func (r *Registry) Lookup(nodeType string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[nodeType]
	return def, ok
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Instantiate создаёт узел name по определению типа nodeType.
func (r *Registry) Instantiate(nodeType, name string) (*graph.Node, error) {
	def, ok := r.Lookup(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, nodeType)
	}

	var logic graph.Logic
	if def.NewLogic != nil {
		logic = def.NewLogic()
	}

	n, err := graph.NewNode(graph.NodeConfig{Name: name, Logic: logic})
	if err != nil {
		return nil, err
	}

	for _, cfg := range def.Params {
		p, err := param.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("type %s, parameter %s: %w", nodeType, cfg.Name, err)
		}
		if err := n.AddParameter(p); err != nil {
			return nil, err
		}
	}

	for _, slot := range def.Controls {
		p, err := param.NewControl(slot.Name, slot.Mode)
		if err != nil {
			return nil, fmt.Errorf("type %s, control %s: %w", nodeType, slot.Name, err)
		}
		if err := n.AddParameter(p); err != nil {
			return nil, err
		}
	}

	return n, nil
}
