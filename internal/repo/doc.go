// Package repo хранит историю runs в PostgreSQL.
//
// History подписывается на события движка (events.Sink): старт run
// создаёт запись, финал обновляет её статус, события узлов пишутся
// в журнал. Запись fire-and-forget: ошибки БД логируются и не влияют
// на выполнение. Поверх таблиц — API запросов для CLI и UI.
package repo
