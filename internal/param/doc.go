// Package param содержит модель параметров узла.
//
// Включает:
//   - param.go     — Parameter: типизированный слот со значением и режимами
//   - container.go — контейнерные параметры (list/dict) с дочерними элементами
//   - types.go     — теги типов и проверка совместимости
//
// Parameter принадлежит ровно одному узлу. Значение читается только логикой
// узла-владельца или планировщиком при протягивании в downstream-параметр.
package param
