package scheduler

import "errors"

// Ошибки пакета scheduler.
var (
	// ErrBadCronExpr — невалидное cron-выражение.
	ErrBadCronExpr = errors.New("invalid cron expression")

	// ErrNoSchedule — у триггера нет ни cron-выражения, ни интервала.
	ErrNoSchedule = errors.New("trigger has neither cron expression nor interval")
)
