package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки пакета resolver.
var (
	// ErrRunBlocked — запуск заблокирован ошибками предварительной валидации.
	ErrRunBlocked = errors.New("run blocked by validation errors")

	// ErrDataCycle — циклическая зависимость по данным.
	ErrDataCycle = errors.New("data dependency cycle")
)

// ResolutionError — ошибка резолюции с идентичностью исходного узла.
//
// При каскадном провале (upstream-узел упал во время протягивания)
// ошибка сохраняет имя узла, в котором она возникла.
type ResolutionError struct {
	// Node — имя узла, в котором возникла ошибка.
	Node string

	// Err — исходная ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// wrapResolution оборачивает ошибку в ResolutionError, если она ещё
// не несёт идентичность узла.
func wrapResolution(node string, err error) error {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return err
	}
	return &ResolutionError{Node: node, Err: err}
}

// ValidationFailure — ошибки валидации одного узла.
type ValidationFailure struct {
	// Node — имя узла.
	Node string

	// Errs — список ошибок, о которых сообщила логика узла.
	Errs []error
}

// PreRunError — совокупность ошибок предварительной валидации,
// заблокировавших запуск.
type PreRunError struct {
	// Failures — узлы с непустым списком ошибок.
	Failures []ValidationFailure
}

// Error реализует интерфейс error.
func (e *PreRunError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v:", ErrRunBlocked)
	for _, f := range e.Failures {
		for _, err := range f.Errs {
			fmt.Fprintf(&sb, " [%s: %v]", f.Node, err)
		}
	}
	return sb.String()
}

// Unwrap позволяет errors.Is как с ErrRunBlocked, так и с ошибками
// конкретных узлов.
func (e *PreRunError) Unwrap() []error {
	errs := []error{ErrRunBlocked}
	for _, f := range e.Failures {
		errs = append(errs, f.Errs...)
	}
	return errs
}
