package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shaiso/Nodeflow/internal/events"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/nodes"
	"github.com/shaiso/Nodeflow/internal/repo"
	"github.com/shaiso/Nodeflow/internal/resolver"
	"github.com/shaiso/Nodeflow/internal/task"
)

// engine — собранный движок для одного манифеста.
type engine struct {
	manifest *library.Manifest
	resolver *resolver.Resolver
	closeFns []func()
}

// Close освобождает внешние ресурсы движка (AMQP, пул БД).
func (e *engine) Close() {
	for i := len(e.closeFns) - 1; i >= 0; i-- {
		e.closeFns[i]()
	}
}

// startNode выбирает стартовый узел: явный флаг либо entry манифеста.
func (e *engine) startNode(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if e.manifest.Entry != "" {
		return e.manifest.Entry, nil
	}
	return "", fmt.Errorf("no start node: pass --start or set entry in the manifest")
}

// engineOptions — настройки сборки движка.
type engineOptions struct {
	logger       *slog.Logger
	pollInterval time.Duration
	logEvents    bool
	amqpURL      string
	withHistory  bool
}

// buildEngine читает манифест и собирает граф, приёмники событий
// и резолвер. Ошибка на любом шаге не оставляет открытых ресурсов.
func buildEngine(ctx context.Context, manifestPath string, opts engineOptions) (*engine, error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := library.Parse(data)
	if err != nil {
		return nil, err
	}

	reg := library.NewRegistry()
	if err := nodes.RegisterBuiltins(reg, nodes.Env{Logger: logger}); err != nil {
		return nil, fmt.Errorf("register builtins: %w", err)
	}

	g, err := library.Build(manifest, reg)
	if err != nil {
		return nil, err
	}

	var closeFns []func()
	var sinks events.MultiSink

	if opts.logEvents {
		sinks = append(sinks, events.NewLogSink(logger))
	}

	if opts.amqpURL != "" {
		conn, err := events.Dial(opts.amqpURL, logger)
		if err != nil {
			return nil, fmt.Errorf("amqp connect: %w", err)
		}
		closeFns = append(closeFns, func() { conn.Close() })
		sinks = append(sinks, events.NewAMQPSink(conn, logger))
	}

	if opts.withHistory {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			closeAll(closeFns)
			return nil, fmt.Errorf("db connect: %w", err)
		}
		closeFns = append(closeFns, pool.Close)

		history := repo.NewHistory(pool, logger)
		if err := history.Migrate(ctx); err != nil {
			closeAll(closeFns)
			return nil, err
		}
		sinks = append(sinks, history)
	}

	var sink events.Sink = events.NopSink{}
	if len(sinks) > 0 {
		sink = sinks
	}

	runner := task.New(task.Config{
		PollInterval: opts.pollInterval,
		Logger:       logger,
	})

	res := resolver.New(resolver.Config{
		Graph:  g,
		Runner: runner,
		Sink:   sink,
		Logger: logger,
	})

	return &engine{
		manifest: manifest,
		resolver: res,
		closeFns: closeFns,
	}, nil
}

func closeAll(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
