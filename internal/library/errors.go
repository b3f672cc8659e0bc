package library

import (
	"errors"
	"fmt"
)

// Ошибки пакета library.
var (
	// ErrEmptyType — определение без имени типа.
	ErrEmptyType = errors.New("node type is empty")

	// ErrDuplicateType — тип уже зарегистрирован.
	ErrDuplicateType = errors.New("node type already registered")

	// ErrUnknownType — тип не зарегистрирован в библиотеке.
	ErrUnknownType = errors.New("unknown node type")

	// ErrNoNodes — манифест без узлов.
	ErrNoNodes = errors.New("manifest has no nodes")

	// ErrUnknownEntry — стартовый узел не описан в манифесте.
	ErrUnknownEntry = errors.New("entry node is not defined in manifest")

	// ErrBadEndpoint — точка соединения не в форме "node.param".
	ErrBadEndpoint = errors.New("malformed connection endpoint")
)

// ManifestError — ошибка валидации манифеста с привязкой к узлу и полю.
type ManifestError struct {
	// Node — имя узла (пустое для ошибок уровня манифеста).
	Node string

	// Field — поле, вызвавшее ошибку.
	Field string

	// Message — описание проблемы.
	Message string

	// Err — базовая ошибка для errors.Is.
	Err error
}

// NewManifestError создаёт ManifestError.
func NewManifestError(node, field, message string, err error) *ManifestError {
	return &ManifestError{Node: node, Field: field, Message: message, Err: err}
}

// Error реализует интерфейс error.
func (e *ManifestError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("manifest: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("node %s: %s: %s", e.Node, e.Field, e.Message)
}

// Unwrap возвращает базовую ошибку.
func (e *ManifestError) Unwrap() error {
	return e.Err
}
