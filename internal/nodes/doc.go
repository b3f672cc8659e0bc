// Package nodes — встроенная библиотека типов узлов.
//
// Типы:
//   - value    — источник значения из свойства
//   - template — рендеринг text/template по словарю значений
//   - branch   — условная маршрутизация control-пути (then/else)
//   - reroute  — сквозной транзит с негоциацией типа
//   - delay    — отложенная выдача значения (фоновая задача)
//   - http     — HTTP-запрос как фоновая задача (submit → poll → retrieve)
//   - secret   — значение из провайдера секретов с pre-run валидацией
//
// Логика узлов получает общее окружение Env: провайдер секретов,
// разделяемый кэш, HTTP-клиент.
package nodes
