package models

import "errors"

// Ошибки ядра редактора. Операции оборачивают их контекстом, сравнивать через errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrNotFound           = errors.New("not found")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)
