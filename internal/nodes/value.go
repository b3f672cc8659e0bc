package nodes

import (
	"context"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
)

// ValueDefinition — узел-источник: выдаёт значение свойства value.
func ValueDefinition() *library.Definition {
	return &library.Definition{
		Type: "value",
		Params: []param.Config{
			{Name: "value", Modes: param.ModeProperty | param.ModeInput},
			{Name: "out", Modes: param.ModeOutput},
		},
		Controls: []library.ControlSlot{
			{Name: "exec", Mode: param.ModeInput},
			{Name: "next", Mode: param.ModeOutput},
		},
		NewLogic: func() graph.Logic {
			return graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
				return nil, n.SetOutput("out", n.ValueOf("value"))
			})
		},
	}
}
