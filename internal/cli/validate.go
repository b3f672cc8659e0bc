package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/Nodeflow/internal/resolver"
)

// NewValidateCmd создаёт команду проверки манифеста.
//
// Проверяются оба уровня: структура манифеста (имена, типы,
// соединения) и pre-run валидация логики узлов.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate MANIFEST",
		Short: "Validate a flow manifest without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			eng, err := buildEngine(cmd.Context(), args[0], engineOptions{
				logger: slog.Default(),
			})
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.resolver.Validate(); err != nil {
				var preRun *resolver.PreRunError
				if errors.As(err, &preRun) {
					printFailures(out, preRun)
				}
				return err
			}

			out.Success("Manifest is valid")
			return nil
		},
	}
}

type validationProblem struct {
	Node    string `json:"node"`
	Problem string `json:"problem"`
}

func printFailures(out *Output, preRun *resolver.PreRunError) {
	var rows [][]string
	var problems []validationProblem
	for _, failure := range preRun.Failures {
		for _, err := range failure.Errs {
			rows = append(rows, []string{failure.Node, err.Error()})
			problems = append(problems, validationProblem{Node: failure.Node, Problem: err.Error()})
		}
	}
	out.Print([]string{"NODE", "PROBLEM"}, rows, problems)
}
