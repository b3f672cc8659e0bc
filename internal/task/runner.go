package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 60
)

// State — состояние внешней задачи, возвращаемое опросом.
type State string

// Состояния задачи.
const (
	// StatePending — задача принята, результата ещё нет.
	StatePending State = "PENDING"

	// StateSucceeded — задача завершена, доступен handle результата.
	StateSucceeded State = "SUCCEEDED"

	// StateFailed — задача завершилась ошибкой.
	StateFailed State = "FAILED"
)

// Status — результат одного опроса внешней задачи.
type Status struct {
	// State — текущее состояние задачи.
	State State

	// Handle — ссылка на результат (заполнена при StateSucceeded).
	Handle string

	// Reason — причина ошибки (заполнена при StateFailed).
	Reason string
}

// Job — отложенная единица работы узла.
//
// Контракт:
//   - Submit вызывается один раз; ошибка фатальна для этого выполнения
//   - Poll вызывается повторно с фиксированным интервалом до maxAttempts
//   - Retrieve вызывается один раз при успехе и разрешает handle в значение
type Job interface {
	Submit(ctx context.Context) (string, error)
	Poll(ctx context.Context, id string) (Status, error)
	Retrieve(ctx context.Context, handle string) (any, error)
}

// Runner выполняет Job до готового значения.
type Runner struct {
	pollInterval time.Duration
	maxAttempts  int
	logger       *slog.Logger
}

// Config — конфигурация Runner.
type Config struct {
	// PollInterval — интервал между опросами (default: 2s).
	PollInterval time.Duration

	// MaxAttempts — максимальное число опросов (default: 60).
	// Превышение — таймаут выполнения.
	MaxAttempts int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Run выполняет задачу целиком: submit → цикл poll → retrieve.
//
// Отмена контекста останавливает цикл до следующего опроса — фоновых
// горутин после возврата не остаётся. При исчерпании попыток возвращается
// ErrPollTimeout; Retrieve в этом случае не вызывается.
func (r *Runner) Run(ctx context.Context, job Job) (any, error) {
	id, err := job.Submit(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	r.logger.Debug("task submitted", "task_id", id, "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			r.logger.Debug("task polling cancelled", "task_id", id, "attempt", attempt)
			return nil, ctx.Err()
		case <-ticker.C:
		}

		telemetry.TaskPollsTotal.Inc()

		status, err := job.Poll(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("poll attempt %d: %w", attempt, err)
		}

		switch status.State {
		case StatePending:
			r.logger.Debug("task still pending", "task_id", id, "attempt", attempt)

		case StateSucceeded:
			value, err := job.Retrieve(ctx, status.Handle)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRetrieveFailed, err)
			}
			r.logger.Debug("task succeeded", "task_id", id, "attempts", attempt)
			return value, nil

		case StateFailed:
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, status.Reason)

		default:
			return nil, fmt.Errorf("%w: unknown state %q", ErrJobFailed, status.State)
		}
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted", ErrPollTimeout, r.maxAttempts)
}
