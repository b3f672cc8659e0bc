// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Формат логов и набор метрик едины для CLI и serve-режима;
// метрики экспортируются на /metrics endpoint.
package telemetry
