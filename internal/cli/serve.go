package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Nodeflow/internal/scheduler"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// NewServeCmd создаёт команду serve: выполнение флоу по расписанию
// плюс HTTP-endpoint'ы /healthz и /metrics.
func NewServeCmd(outputFn func() *Output) *cobra.Command {
	var addr string
	var cronExpr string
	var everySec int
	var start string
	var amqpURL string
	var withHistory bool

	cmd := &cobra.Command{
		Use:   "serve MANIFEST",
		Short: "Run a flow on a schedule and expose metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cronExpr == "" && everySec <= 0 {
				return fmt.Errorf("no schedule: pass --cron or --every")
			}

			logger := slog.Default()
			ctx := cmd.Context()

			eng, err := buildEngine(ctx, args[0], engineOptions{
				logger:      logger,
				logEvents:   true,
				amqpURL:     amqpURL,
				withHistory: withHistory,
			})
			if err != nil {
				return err
			}
			defer eng.Close()

			startName, err := eng.startNode(start)
			if err != nil {
				return err
			}

			sched := scheduler.New(scheduler.Config{
				Runner: eng.resolver,
				Logger: logger,
			})

			name := eng.manifest.Name
			if name == "" {
				name = "manifest"
			}
			err = sched.Add(scheduler.Trigger{
				Name:        name,
				CronExpr:    cronExpr,
				IntervalSec: everySec,
				StartNode:   startName,
			})
			if err != nil {
				return err
			}

			sched.Start(ctx)
			defer sched.Stop()

			return serveHTTP(ctx, addr, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8081", "HTTP listen address")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (five fields)")
	cmd.Flags().IntVar(&everySec, "every", 0, "Run interval in seconds")
	cmd.Flags().StringVar(&start, "start", "", "Start node (defaults to the manifest entry)")
	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "Publish engine events to RabbitMQ")
	cmd.Flags().BoolVar(&withHistory, "history", false, "Record runs in PostgreSQL (DB_URL)")

	return cmd
}

// serveHTTP поднимает HTTP-сервер с /healthz и /metrics и живёт
// до отмены контекста.
func serveHTTP(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", telemetry.MetricsHandler())

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
