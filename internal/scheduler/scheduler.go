package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/Nodeflow/internal/resolver"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// Runner — то, что умеет запустить флоу от стартового узла.
// Реализуется resolver.Resolver.
type Runner interface {
	Run(ctx context.Context, start string) (*resolver.Report, error)
}

// Trigger — расписание запуска флоу.
//
// Задаётся либо CronExpr, либо IntervalSec; если указаны оба,
// приоритет у cron-выражения.
type Trigger struct {
	Name        string
	CronExpr    string
	IntervalSec int
	Timezone    string // IANA, пустой или невалидный — UTC
	StartNode   string

	nextDueAt time.Time
}

// NextDueAt возвращает следующее запланированное время срабатывания.
func (t *Trigger) NextDueAt() time.Time { return t.nextDueAt }

// Scheduler — планировщик, запускающий флоу по due-триггерам.
type Scheduler struct {
	runner Runner
	logger *slog.Logger
	tick   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	triggers map[string]*Trigger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config — конфигурация Scheduler.
type Config struct {
	Runner       Runner
	Logger       *slog.Logger
	TickInterval time.Duration // период проверки триггеров (default: 1s)
	Now          func() time.Time
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		runner:   cfg.Runner,
		logger:   logger,
		tick:     tick,
		now:      now,
		triggers: make(map[string]*Trigger),
	}
}

// Add регистрирует триггер и вычисляет его первое время срабатывания.
func (s *Scheduler) Add(trigger Trigger) error {
	if trigger.Name == "" {
		return fmt.Errorf("trigger name is empty")
	}
	if trigger.StartNode == "" {
		return fmt.Errorf("trigger %s: start node is empty", trigger.Name)
	}
	if trigger.CronExpr != "" {
		if err := ValidateCronExpr(trigger.CronExpr); err != nil {
			return fmt.Errorf("trigger %s: %w", trigger.Name, err)
		}
	}

	nextDue, err := NextDue(&trigger, s.now())
	if err != nil {
		return fmt.Errorf("trigger %s: %w", trigger.Name, err)
	}
	trigger.nextDueAt = nextDue

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.triggers[trigger.Name]; ok {
		return fmt.Errorf("trigger %s: already registered", trigger.Name)
	}
	s.triggers[trigger.Name] = &trigger
	return nil
}

// Remove удаляет триггер. Отсутствующее имя — no-op.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.triggers, name)
}

// Triggers возвращает зарегистрированные триггеры,
// отсортированные по имени.
func (s *Scheduler) Triggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		list = append(list, *t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Start запускает цикл планировщика в фоновой горутине.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		s.logger.Info("scheduler started", "tick", s.tick)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop останавливает цикл и дожидается завершения текущего тика.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Tick выполняет один тик планировщика: запускает все due-триггеры
// и пересчитывает их next_due. Ошибки одного триггера не блокируют
// обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	due := s.collectDue(now)
	if len(due) == 0 {
		return
	}

	var fired, failed int
	for _, trigger := range due {
		if err := s.fireTrigger(ctx, trigger); err != nil {
			failed++
			telemetry.ScheduledTriggersTotal.WithLabelValues("failed").Inc()
			s.logger.Error("scheduled run failed",
				"trigger", trigger.Name,
				"start_node", trigger.StartNode,
				"error", err,
			)
			continue
		}
		fired++
		telemetry.ScheduledTriggersTotal.WithLabelValues("fired").Inc()
	}

	s.logger.Info("scheduler tick completed",
		"due", len(due),
		"fired", fired,
		"failed", failed,
	)
}

// collectDue снимает due-триггеры и сразу сдвигает их next_due,
// чтобы долгий запуск не привёл к повторному срабатыванию.
func (s *Scheduler) collectDue(now time.Time) []*Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Trigger
	for _, trigger := range s.triggers {
		if trigger.nextDueAt.After(now) {
			continue
		}
		due = append(due, trigger)

		nextDue, err := NextDue(trigger, now)
		if err != nil {
			// Расписание стало невалидным: снимаем триггер
			s.logger.Error("failed to calculate next due, removing trigger",
				"trigger", trigger.Name,
				"error", err,
			)
			delete(s.triggers, trigger.Name)
			continue
		}
		trigger.nextDueAt = nextDue
	}

	sort.Slice(due, func(i, j int) bool { return due[i].Name < due[j].Name })
	return due
}

func (s *Scheduler) fireTrigger(ctx context.Context, trigger *Trigger) error {
	report, err := s.runner.Run(ctx, trigger.StartNode)
	if err != nil {
		return err
	}

	s.logger.Info("scheduled run completed",
		"trigger", trigger.Name,
		"run_id", report.RunID,
		"resolved", len(report.Resolved),
		"halted", report.Halted,
	)
	return nil
}
