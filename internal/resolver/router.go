package resolver

import (
	"fmt"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/param"
)

// route выбирает следующий узел control-пути после узла name.
//
// proceed == false — остановка прохода; пустой reason означает штатное
// завершение (нет control-выходов или выбранный выход не подключён),
// непустой — досрочную, но корректную остановку.
func (r *Resolver) route(sc *runScope, name string, fired map[string]bool) (next, reason string, proceed bool) {
	n, ok := r.graph.Node(name)
	if !ok {
		return "", "", false
	}

	outputs := n.ControlOutputs()
	if len(outputs) == 0 {
		return "", "", false
	}

	var chosen string
	if router, ok := n.Logic().(graph.Router); ok {
		output, decided := router.RouteControl(n)
		if !decided {
			// Роутер не принял решения (например, не получил условие)
			sc.logger.Warn("router made no decision, halting", "node", name)
			return "", "router made no decision at " + name, false
		}
		if !hasControlOutput(outputs, output) {
			sc.logger.Warn("router chose unknown control output, halting",
				"node", name, "output", output)
			return "", fmt.Sprintf("unknown control output %q at %s", output, name), false
		}
		chosen = output
	} else if len(outputs) == 1 {
		chosen = outputs[0].Name()
	} else {
		sc.logger.Warn("multiple control outputs without router, halting", "node", name)
		return "", "no router for multiple control outputs at " + name, false
	}

	target, connected := r.graph.ControlTarget(name, chosen)
	if !connected {
		return "", "", false
	}

	edge := name + "." + chosen
	if fired[edge] {
		sc.logger.Warn("control edge already fired, halting", "edge", edge)
		return "", "control edge " + edge + " already fired", false
	}
	fired[edge] = true

	return target.Node, "", true
}

func hasControlOutput(outputs []*param.Parameter, name string) bool {
	for _, p := range outputs {
		if p.Name() == name {
			return true
		}
	}
	return false
}
