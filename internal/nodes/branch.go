package nodes

import (
	"context"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
)

// BranchDefinition — условная маршрутизация control-пути.
//
// Булев вход condition выбирает выход then или else. Если условие
// не произведено или не булево, роутер не принимает решения и
// проход корректно останавливается.
func BranchDefinition() *library.Definition {
	return &library.Definition{
		Type: "branch",
		Params: []param.Config{
			{Name: "condition", Type: param.TypeBool, Modes: param.ModeInput | param.ModeProperty},
		},
		Controls: []library.ControlSlot{
			{Name: "exec", Mode: param.ModeInput},
			{Name: "then", Mode: param.ModeOutput},
			{Name: "else", Mode: param.ModeOutput},
		},
		NewLogic: func() graph.Logic { return branchLogic{} },
	}
}

type branchLogic struct{}

// Process — у ветвления нет data-выходов; вся работа в роутере.
func (branchLogic) Process(_ context.Context, _ *graph.Node) (*graph.Deferred, error) {
	return nil, nil
}

// RouteControl реализует интерфейс graph.Router.
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
