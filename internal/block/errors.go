package block

import "errors"

var (
	// ErrNotFound блок или семейство не зарегистрированы. Обычно означает
	// несовпадение сохранения и набора ассетов, вызывающая сторона не должна его глотать.
	ErrNotFound = errors.New("block not found")
	// ErrInvalidURI строка не является корректным URI блока
	ErrInvalidURI = errors.New("invalid block uri")
	// ErrUnloadable определение семейства отсутствует или помечено как незагружаемое
	ErrUnloadable = errors.New("block family not available")
)
