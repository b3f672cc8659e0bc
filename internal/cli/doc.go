// Package cli реализует инструмент командной строки Nodeflow.
//
// # Обзор
//
// CLI работает с флоу локально: читает JSON-манифест, собирает граф
// из библиотеки встроенных узлов и выполняет его движком резолюции
// прямо в процессе. Сетевых зависимостей по умолчанию нет; AMQP и
// PostgreSQL подключаются флагами.
//
// # Ключевые компоненты
//
// ## engine
//
// Сборка движка для одного манифеста: реестр узлов, граф, приёмники
// событий (лог, AMQP, история в БД) и резолвер. Команды получают
// готовый движок через buildEngine и закрывают его через Close.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: nodeflow run flow.json --json | jq .
//
// ## Commands
//
//   - run:      выполнить флоу из манифеста и напечатать отчёт
//   - validate: проверить манифест и pre-run валидацию узлов
//   - nodes:    перечислить встроенные типы узлов
//   - serve:    запускать флоу по расписанию, отдавать /metrics
//
// Каждая команда создаётся через фабричную функцию (NewRunCmd и т.д.),
// принимающую outputFn — замыкание для ленивого создания Output после
// парсинга PersistentFlags.
package cli
