// Nodeflow CLI — выполнение флоу из JSON-манифестов.
//
// Использование:
//
//	nodeflow [--json] [--env-file PATH] <command> [flags]
//
// Команды:
//
//	run       Выполнить флоу из манифеста
//	validate  Проверить манифест без выполнения
//	nodes     Перечислить встроенные типы узлов
//	serve     Запускать флоу по расписанию, отдавать /metrics
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Nodeflow/internal/cli"
	"github.com/shaiso/Nodeflow/internal/secrets"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var jsonOutput bool
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "nodeflow",
		Short:         "Nodeflow — node graph execution engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := secrets.LoadDotenv(envFile); err != nil {
				return err
			}
			telemetry.SetupLogger()
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with secrets")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewNodesCmd(outputFn),
		cli.NewServeCmd(outputFn),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
