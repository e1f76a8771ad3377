package domain

import (
	"context"
	"errors"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrInvariantViolation   = errors.New("la cantidad en bodega no puede quedar negativa")
	ErrMalformedEvent       = errors.New("evento de movimiento mal formado")
	ErrProductMismatch      = errors.New("el producto no coincide con el del movimiento")
	ErrStoreUnavailable     = errors.New("almacenamiento no disponible")
	ErrTransportUnavailable = errors.New("transporte de mensajes no disponible")
)

// Etiquetas de error usadas en logs y métricas.
const (
	ErrorTypeInvariantViolation   = "invariant_violation"
	ErrorTypeMalformedEvent       = "malformed_event"
	ErrorTypeProductMismatch      = "product_mismatch"
	ErrorTypeStoreUnavailable     = "store_unavailable"
	ErrorTypeTransportUnavailable = "transport_unavailable"
	ErrorTypeCanceled             = "canceled"
	ErrorTypeUnknown              = "unknown"
)

// ErrorType clasifica err en una etiqueta estable. nil devuelve "".
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvariantViolation):
		return ErrorTypeInvariantViolation
	case errors.Is(err, ErrMalformedEvent), errors.Is(err, ErrInvalidInput):
		return ErrorTypeMalformedEvent
	case errors.Is(err, ErrProductMismatch):
		return ErrorTypeProductMismatch
	case errors.Is(err, ErrStoreUnavailable):
		return ErrorTypeStoreUnavailable
	case errors.Is(err, ErrTransportUnavailable):
		return ErrorTypeTransportUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeCanceled
	default:
		return ErrorTypeUnknown
	}
}

// Retryable indica si conviene reintentar la entrega que produjo err.
func Retryable(err error) bool {
	switch ErrorType(err) {
	case ErrorTypeStoreUnavailable, ErrorTypeCanceled:
		return true
	default:
		return false
	}
}
