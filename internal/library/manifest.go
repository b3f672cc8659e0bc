package library

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shaiso/Nodeflow/internal/graph"
)

// Manifest — JSON-описание флоу.
type Manifest struct {
	// Name — имя флоу.
	Name string `json:"name"`

	// Entry — стартовый узел control-пути.
	Entry string `json:"entry,omitempty"`

	// Nodes — узлы флоу.
	Nodes []NodeSpec `json:"nodes"`

	// Connections — соединения между параметрами узлов.
	Connections []ConnectionSpec `json:"connections,omitempty"`
}

// NodeSpec — описание узла в манифесте.
type NodeSpec struct {
	// Name — имя узла, уникальное в пределах флоу.
	Name string `json:"name"`

	// Type — тип узла из библиотеки.
	Type string `json:"type"`

	// Values — начальные значения параметров.
	Values map[string]any `json:"values,omitempty"`
}

// ConnectionSpec — соединение в форме "node.param" → "node.param".
// Data- или control-природа выводится из параметров.
type ConnectionSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Parse разбирает и валидирует JSON-манифест.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate выполняет полную валидацию манифеста.
//
// Проверяет:
//   - наличие узлов
//   - непустоту и уникальность имён (имя не содержит точку:
//     точка — разделитель в точках соединения)
//   - непустоту типов
//   - форму точек соединения и существование их узлов
//   - существование стартового узла
func (m *Manifest) Validate() error {
	if len(m.Nodes) == 0 {
		return ErrNoNodes
	}

	names := make(map[string]bool, len(m.Nodes))
	for i := range m.Nodes {
		node := &m.Nodes[i]

		if node.Name == "" {
			return NewManifestError("", "nodes",
				fmt.Sprintf("node %d has empty name", i), graph.ErrEmptyNodeName)
		}
		if strings.Contains(node.Name, ".") {
			return NewManifestError(node.Name, "name",
				"node name must not contain a dot", graph.ErrEmptyNodeName)
		}
		if names[node.Name] {
			return NewManifestError(node.Name, "name",
				fmt.Sprintf("duplicate node name: %s", node.Name), graph.ErrDuplicateNode)
		}
		names[node.Name] = true

		if node.Type == "" {
			return NewManifestError(node.Name, "type", "node has empty type", ErrEmptyType)
		}
	}

	for i, conn := range m.Connections {
		for _, raw := range []string{conn.From, conn.To} {
			ep, err := parseEndpoint(raw)
			if err != nil {
				return NewManifestError("", fmt.Sprintf("connections[%d]", i), err.Error(), ErrBadEndpoint)
			}
			if !names[ep.Node] {
				return NewManifestError(ep.Node, fmt.Sprintf("connections[%d]", i),
					fmt.Sprintf("connection references unknown node: %s", ep.Node), graph.ErrUnknownNode)
			}
		}
	}

	if m.Entry != "" && !names[m.Entry] {
		return fmt.Errorf("%w: %s", ErrUnknownEntry, m.Entry)
	}

	return nil
}

// Build конструирует граф по манифесту и библиотеке типов.
//
// Порядок: узлы → значения параметров → соединения. Любая ошибка
// прерывает конструирование; частичный граф не возвращается.
func Build(m *Manifest, reg *Registry) (*graph.Graph, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	g := graph.New()

	for i := range m.Nodes {
		spec := &m.Nodes[i]

		n, err := reg.Instantiate(spec.Type, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", spec.Name, err)
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}

		for name, value := range spec.Values {
			p, ok := n.Parameter(name)
			if !ok {
				return nil, NewManifestError(spec.Name, "values",
					fmt.Sprintf("unknown parameter: %s", name), graph.ErrUnknownParameter)
			}
			if err := p.SetValue(value); err != nil {
				return nil, fmt.Errorf("node %s, parameter %s: %w", spec.Name, name, err)
			}
		}
	}

	for _, conn := range m.Connections {
		from, err := parseEndpoint(conn.From)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadEndpoint, conn.From)
		}
		to, err := parseEndpoint(conn.To)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadEndpoint, conn.To)
		}
		if err := g.Connect(from, to); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// parseEndpoint разбирает точку соединения "node.param".
func parseEndpoint(raw string) (graph.Endpoint, error) {
	node, parameter, ok := strings.Cut(raw, ".")
	if !ok || node == "" || parameter == "" {
		return graph.Endpoint{}, fmt.Errorf("endpoint %q is not in node.param form", raw)
	}
	return graph.Endpoint{Node: node, Param: parameter}, nil
}
