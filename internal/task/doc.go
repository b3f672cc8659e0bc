// Package task выполняет асинхронную работу узла по протоколу
// submit → poll → retrieve.
//
// Runner владеет циклом опроса: фиксированный интервал, ограниченное число
// попыток, остановка по отмене контекста. Логика узла отдаёт отложенную
// работу как Job и получает готовое значение — генераторная семантика
// в узлы не протекает, отмена и таймаут едины для всех типов узлов.
package task
