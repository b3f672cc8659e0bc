package param

import "errors"

// Ошибки модели параметров.
var (
	// ErrEmptyName — параметр не имеет имени.
	ErrEmptyName = errors.New("parameter has empty name")

	// ErrNameWhitespace — имя параметра содержит пробельные символы.
	ErrNameWhitespace = errors.New("parameter name contains whitespace")

	// ErrNoModes — параметр не имеет ни одного режима.
	ErrNoModes = errors.New("parameter has no modes")

	// ErrNotSettable — параметр нельзя изменять напрямую.
	ErrNotSettable = errors.New("parameter is not settable")

	// ErrValueRejected — значение отклонено хуком before-value-set.
	ErrValueRejected = errors.New("value rejected by hook")

	// ErrNotContainer — операция над детьми применена к скалярному параметру.
	ErrNotContainer = errors.New("parameter is not a container")

	// ErrDuplicateChild — контейнер уже содержит ребёнка с таким именем.
	ErrDuplicateChild = errors.New("duplicate child parameter")
)

// ValidationError — ошибка валидации значения параметра.
//
// Возвращается из SetValue, когда конвертер или валидатор отклонил значение.
// Значение параметра при этом не меняется (атомарный set).
type ValidationError struct {
	Param   string // имя параметра
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Param != "" {
		return "parameter " + e.Param + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(param, message string, err error) *ValidationError {
	return &ValidationError{
		Param:   param,
		Message: message,
		Err:     err,
	}
}
