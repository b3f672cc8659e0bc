package repo

import "errors"

// Ошибки пакета repo.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")
)
