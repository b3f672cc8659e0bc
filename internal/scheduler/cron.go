package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (пять полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextDue вычисляет следующее время срабатывания триггера.
// Учитывает timezone триггера; невалидный timezone — fallback на UTC.
func NextDue(trigger *Trigger, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(trigger.Timezone)
	if err != nil {
		loc = time.UTC
	}

	fromInTz := from.In(loc)

	if trigger.CronExpr != "" {
		return nextCron(trigger.CronExpr, fromInTz)
	}

	if trigger.IntervalSec > 0 {
		return fromInTz.Add(time.Duration(trigger.IntervalSec) * time.Second).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrNoSchedule, trigger.Name)
}

// nextCron вычисляет следующее время по cron-выражению.
func nextCron(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadCronExpr, cronExpr, err)
	}
	return schedule.Next(from).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBadCronExpr, cronExpr, err)
	}
	return nil
}
