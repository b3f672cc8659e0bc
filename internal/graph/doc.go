// Package graph содержит граф узлов и соединений.
//
// Включает:
//   - node.go       — Node: узел с упорядоченными параметрами и состоянием резолюции
//   - graph.go      — Graph: индексы data- и control-рёбер с O(1) обновлением
//   - negotiator.go — негоциация типов (Open / Constrained / Locked)
//
// Data-ребро переносит значение между параметрами; control-ребро означает
// "выполнить следующим". Цель data-ребра принимает не более одного источника;
// control-выход ведёт не более чем к одной цели.
package graph
