// Package resolver выполняет граф узлов.
//
// Резолюция узла — рекурсивное протягивание значений из upstream-узлов
// (spotlight-обход входов в порядке объявления, либо по плану логики),
// затем вызов логики узла. Результат кэшируется: повторный запрос к
// RESOLVED-узлу с неизменёнными зависимостями отдаёт кэш без повторного
// вызова логики. Изменение значения параметра инвалидирует кэш узла
// и всех узлов ниже по данным.
//
// Run проходит control-путь от стартового узла: после резолюции узла
// роутер логики выбирает control-выход, и проход переходит к его цели.
// Отсутствие решения, неизвестный выход или неподключённый выход —
// корректная остановка, не ошибка.
//
// Ошибка резолюции очищает выходы узла: частичные результаты не
// наблюдаемы ни в каком исходе.
package resolver
