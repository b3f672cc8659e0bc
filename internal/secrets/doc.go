// Package secrets предоставляет узлам доступ к секретам (API-ключи,
// токены внешних сервисов).
//
// Отсутствие секрета — не паника и не crash: Get возвращает ok == false,
// а логика узла превращает отсутствие в ошибку предварительной валидации.
package secrets
