// Package library — библиотека типов узлов и загрузчик манифестов флоу.
//
// Registry хранит определения типов узлов (схема параметров + фабрика
// логики); граф конструируется по определению один раз, после чего
// библиотека не перечитывается.
//
// Manifest — JSON-описание флоу: узлы с типами и значениями параметров,
// соединения, стартовый узел. Манифест полностью валидируется до
// конструирования графа: частично построенный граф не отдаётся.
package library
