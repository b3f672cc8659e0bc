// Package events доставляет уведомления о ходе резолюции внешним слоям
// (UI, история runs).
//
// Уведомления — fire-and-forget: движок публикует их и не ждёт подтверждения;
// резолюция обязана быть корректной, даже если слушателей нет. Ошибки
// доставки логируются и никогда не влияют на выполнение.
//
// Реализации Sink:
//   - NopSink  — отсутствие слушателя
//   - LogSink  — структурированный лог
//   - AMQPSink — публикация в RabbitMQ для удалённых UI
package events
