// Package apierror define los sobres de error que la API devuelve al cliente.
// Ningún detalle interno (errores SQL, stack traces) sale crudo: los handlers
// traducen todo a estos sobres.
package apierror

// APIError es el sobre canónico de toda respuesta 4xx/5xx. Codigo es un
// identificador estable de la taxonomía de errores del servicio, para que los
// clientes ramifiquen sin parsear Detail.
type APIError struct {
	Detail string `json:"detail"`
	Codigo string `json:"codigo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func NewConCodigo(codigo, msg string) *APIError {
	return &APIError{Detail: msg, Codigo: codigo}
}

// ValidationError agrupa los errores de campo de una request mal formada.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
