package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con contexto (fmt.Errorf("%w: ...")) y la capa HTTP los
// traduce con errors.Is.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrValidation   = errors.New("entrada inválida")
	ErrPermission   = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con un recurso existente")
	ErrConcurrency  = errors.New("recurso bloqueado por otra operación, reintente")
	ErrUnauthorized = errors.New("no autorizado")

	// ErrInsufficientStock es un error de validación: errors.Is(err, ErrValidation) también es cierto.
	ErrInsufficientStock = fmt.Errorf("%w: stock insuficiente", ErrValidation)
)

// Validationf construye un error de validación con mensaje descriptivo.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf construye un error de recurso inexistente con mensaje descriptivo.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
