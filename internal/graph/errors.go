package graph

import "errors"

// Ошибки структуры графа.
var (
	// ErrEmptyNodeName — узел не имеет имени.
	ErrEmptyNodeName = errors.New("node has empty name")

	// ErrDuplicateNode — узел с таким именем уже есть в графе.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrDuplicateParameter — параметр с таким именем уже есть на узле.
	ErrDuplicateParameter = errors.New("duplicate parameter name")

	// ErrUnknownNode — узел не найден в графе.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownParameter — параметр не найден на узле.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// Ошибки соединений.
var (
	// ErrSelfConnection — соединение узла с самим собой.
	ErrSelfConnection = errors.New("node cannot connect to itself")

	// ErrModeViolation — режимы параметров не допускают соединение.
	ErrModeViolation = errors.New("parameter mode violation")

	// ErrTypeMismatch — несовместимые типы концов соединения.
	ErrTypeMismatch = errors.New("incompatible parameter types")

	// ErrAlreadyConnected — конец соединения уже занят
	// (data-цель принимает один источник, control-выход ведёт к одной цели).
	ErrAlreadyConnected = errors.New("endpoint already connected")

	// ErrNotConnected — соединение не существует.
	ErrNotConnected = errors.New("connection does not exist")

	// ErrVetoed — узел-участник отклонил соединение.
	ErrVetoed = errors.New("connection vetoed by node")

	// ErrTypeConflict — негоциация типов не нашла общего типа.
	ErrTypeConflict = errors.New("no common type for connection")
)

// ConnectionError — ошибка создания или удаления соединения.
//
// Возвращается синхронно при попытке соединения; граф при этом
// остаётся в прежнем состоянии.
type ConnectionError struct {
	Source  string // конец-источник в виде "node.param"
	Target  string // конец-цель в виде "node.param"
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ConnectionError) Error() string {
	if e.Source != "" || e.Target != "" {
		return "connection " + e.Source + " -> " + e.Target + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// newConnectionError создаёт ошибку соединения для пары концов.
func newConnectionError(source, target Endpoint, message string, err error) *ConnectionError {
	return &ConnectionError{
		Source:  source.String(),
		Target:  target.String(),
		Message: message,
		Err:     err,
	}
}
