package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт команду выполнения флоу из манифеста.
func NewRunCmd(outputFn func() *Output) *cobra.Command {
	var start string
	var sets []string
	var logEvents bool
	var amqpURL string
	var withHistory bool
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "run MANIFEST",
		Short: "Run a flow from a manifest file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			eng, err := buildEngine(ctx, args[0], engineOptions{
				logger:       slog.Default(),
				pollInterval: pollInterval,
				logEvents:    logEvents,
				amqpURL:      amqpURL,
				withHistory:  withHistory,
			})
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := applyOverrides(eng, sets); err != nil {
				return err
			}

			startName, err := eng.startNode(start)
			if err != nil {
				return err
			}

			report, err := eng.resolver.Run(ctx, startName)
			if report != nil {
				out.Report(report)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start node (defaults to the manifest entry)")
	cmd.Flags().StringSliceVar(&sets, "set", nil, "Override parameter values as NODE.PARAM=VALUE (repeatable)")
	cmd.Flags().BoolVar(&logEvents, "events", false, "Log engine events to stderr")
	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "Publish engine events to RabbitMQ")
	cmd.Flags().BoolVar(&withHistory, "history", false, "Record the run in PostgreSQL (DB_URL)")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Deferred task poll interval")

	return cmd
}

// applyOverrides применяет значения --set к параметрам графа.
func applyOverrides(eng *engine, sets []string) error {
	for _, kv := range sets {
		endpoint, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, expected NODE.PARAM=VALUE", kv)
		}
		node, parameter, ok := strings.Cut(endpoint, ".")
		if !ok || node == "" || parameter == "" {
			return fmt.Errorf("invalid --set target %q, expected NODE.PARAM", endpoint)
		}
		if err := eng.resolver.SetParameterValue(node, parameter, value); err != nil {
			return err
		}
	}
	return nil
}
