package task

import "errors"

// Ошибки асинхронного выполнения.
var (
	// ErrSubmitFailed — внешняя система не приняла задачу.
	// Фатально для текущего выполнения узла, без повторов.
	ErrSubmitFailed = errors.New("task submit failed")

	// ErrPollTimeout — превышено максимальное число попыток опроса.
	ErrPollTimeout = errors.New("task poll timeout")

	// ErrJobFailed — внешняя система сообщила об ошибке выполнения.
	ErrJobFailed = errors.New("task job failed")

	// ErrRetrieveFailed — не удалось получить результат по handle.
	ErrRetrieveFailed = errors.New("task retrieve failed")
)
