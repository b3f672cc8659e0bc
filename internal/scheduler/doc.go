// Package scheduler запускает флоу по расписанию.
//
// Триггер задаётся cron-выражением (пять полей) либо интервалом
// в секундах и привязан к стартовому узлу графа. Цикл планировщика
// тикает с фиксированным периодом и запускает все due-триггеры;
// ошибка одного триггера не блокирует остальные.
//
// Структура:
//   - scheduler.go — Scheduler (Start/Stop, Tick, fireTrigger)
//   - cron.go      — парсинг cron-выражений и вычисление next_due
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Runner: res,
//	    Logger: logger,
//	})
//	sched.Add(scheduler.Trigger{
//	    Name:      "nightly",
//	    CronExpr:  "0 3 * * *",
//	    StartNode: "start",
//	})
//	sched.Start(ctx)
//	defer sched.Stop()
package scheduler
