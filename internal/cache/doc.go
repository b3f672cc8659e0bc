// Package cache — разделяемый кэш тяжёлых ресурсов узлов (клиенты,
// модели, результаты дорогих вычислений).
//
// Кэш ограничен по ёмкости и времени жизни записей: при переполнении
// вытесняется самая давняя по обращению запись, просроченные записи
// не выдаются и удаляются лениво.
package cache
