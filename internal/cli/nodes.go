package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/nodes"
	"github.com/shaiso/Nodeflow/internal/param"
)

// nodeTypeInfo — представление типа узла для вывода.
type nodeTypeInfo struct {
	Type     string `json:"type"`
	Params   string `json:"params"`
	Controls string `json:"controls"`
}

// NewNodesCmd создаёт команду просмотра библиотеки узлов.
func NewNodesCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List built-in node types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			reg := library.NewRegistry()
			if err := nodes.RegisterBuiltins(reg, nodes.Env{Logger: slog.Default()}); err != nil {
				return fmt.Errorf("register builtins: %w", err)
			}

			types := reg.Types()
			rows := make([][]string, 0, len(types))
			listing := make([]nodeTypeInfo, 0, len(types))
			for _, nodeType := range types {
				def, ok := reg.Lookup(nodeType)
				if !ok {
					continue
				}
				info := nodeTypeInfo{
					Type:     def.Type,
					Params:   formatParams(def.Params),
					Controls: formatControls(def.Controls),
				}
				listing = append(listing, info)
				rows = append(rows, []string{info.Type, info.Params, info.Controls})
			}

			out.Print([]string{"TYPE", "PARAMS", "CONTROLS"}, rows, listing)
			return nil
		},
	}
}

func formatParams(params []param.Config) string {
	names := make([]string, len(params))
	for i, cfg := range params {
		names[i] = cfg.Name + ":" + cfg.Type + "(" + modeString(cfg.Modes) + ")"
	}
	return strings.Join(names, " ")
}

func formatControls(controls []library.ControlSlot) string {
	names := make([]string, len(controls))
	for i, slot := range controls {
		direction := "in"
		if slot.Mode&param.ModeOutput != 0 {
			direction = "out"
		}
		names[i] = slot.Name + ":" + direction
	}
	return strings.Join(names, " ")
}

func modeString(modes param.Mode) string {
	var parts []string
	if modes&param.ModeInput != 0 {
		parts = append(parts, "in")
	}
	if modes&param.ModeProperty != 0 {
		parts = append(parts, "prop")
	}
	if modes&param.ModeOutput != 0 {
		parts = append(parts, "out")
	}
	return strings.Join(parts, "|")
}
