package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Nodeflow/internal/events"
)

// Статусы run в истории.
const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusBlocked   = "BLOCKED"
)

// RunRecord — запись истории о run.
type RunRecord struct {
	ID         uuid.UUID
	StartNode  string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// NodeRecord — событие узла в журнале run.
type NodeRecord struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	Node      string
	Kind      string
	Message   string
	CreatedAt time.Time
}

// History — хранилище истории runs поверх PostgreSQL.
//
// Реализует events.Sink: события движка записываются по мере
// поступления. Ошибки БД логируются и не прерывают выполнение.
type History struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewHistory создаёт History.
func NewHistory(pool *pgxpool.Pool, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{pool: pool, logger: logger}
}

// Migrate создаёт таблицы истории.
func (h *History) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			start_node TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS run_events (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			node TEXT NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS run_events_run_id_idx ON run_events (run_id, created_at)`,
	}

	for _, stmt := range ddl {
		if _, err := h.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history: %w", err)
		}
	}
	return nil
}

// Publish реализует интерфейс events.Sink.
func (h *History) Publish(ctx context.Context, event events.Event) {
	var err error

	switch event.Kind {
	case events.KindRunStarted:
		err = h.insertRun(ctx, event)
	case events.KindRunSucceeded:
		err = h.finishRun(ctx, event.RunID, StatusSucceeded, "")
	case events.KindRunFailed:
		err = h.finishRun(ctx, event.RunID, StatusFailed, event.Message)
	case events.KindRunBlocked:
		// Заблокированный run не стартовал: записываем целиком
		if err = h.insertRun(ctx, event); err == nil {
			err = h.finishRun(ctx, event.RunID, StatusBlocked, event.Message)
		}
	default:
		err = h.insertNodeEvent(ctx, event)
	}

	if err != nil {
		h.logger.Warn("history write failed",
			"kind", event.Kind,
			"run_id", event.RunID,
			"error", err,
		)
	}
}

func (h *History) insertRun(ctx context.Context, event events.Event) error {
	query := `
		INSERT INTO runs (id, start_node, status, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := h.pool.Exec(ctx, query,
		event.RunID, event.Node, StatusRunning, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (h *History) finishRun(ctx context.Context, runID uuid.UUID, status, message string) error {
	query := `
		UPDATE runs
		SET status = $2, error = $3, finished_at = now()
		WHERE id = $1
	`
	if _, err := h.pool.Exec(ctx, query, runID, status, message); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (h *History) insertNodeEvent(ctx context.Context, event events.Event) error {
	query := `
		INSERT INTO run_events (id, run_id, node, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := h.pool.Exec(ctx, query,
		event.ID, event.RunID, event.Node, string(event.Kind), event.Message, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert run event: %w", err)
	}
	return nil
}

// Run возвращает запись run по ID.
func (h *History) Run(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT id, start_node, status, error, started_at, finished_at
		FROM runs
		WHERE id = $1
	`
	var rec RunRecord
	err := h.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.StartNode, &rec.Status, &rec.Error, &rec.StartedAt, &rec.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &rec, nil
}

// ListRuns возвращает последние runs, новые первыми.
func (h *History) ListRuns(ctx context.Context, limit, offset int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, start_node, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := h.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		err := rows.Scan(&rec.ID, &rec.StartNode, &rec.Status, &rec.Error,
			&rec.StartedAt, &rec.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// NodeEvents возвращает журнал событий узлов run в хронологическом порядке.
func (h *History) NodeEvents(ctx context.Context, runID uuid.UUID) ([]NodeRecord, error) {
	query := `
		SELECT id, run_id, node, kind, message, created_at
		FROM run_events
		WHERE run_id = $1
		ORDER BY created_at
	`
	rows, err := h.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list run events: %w", err)
	}
	defer rows.Close()

	var records []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Node, &rec.Kind,
			&rec.Message, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
