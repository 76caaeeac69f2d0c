package service

import "errors"

// Errores centinela del subsistema de precios. Los handlers los traducen a
// códigos HTTP con errors.Is; los services pueden envolverlos con fmt.Errorf
// ("…: %w") para agregar contexto sin perder la clasificación.
var (
	// ErrNoEncontrado: lista, lote, producto o evento inexistente.
	ErrNoEncontrado = errors.New("recurso no encontrado")

	// ErrEstadoInvalido: operación contra el estado equivocado de un lote, o un
	// alta de precio retro-datada antes del tramo vigente.
	ErrEstadoInvalido = errors.New("estado inválido para la operación")

	// ErrConflictoConcurrencia: el token de versión recibido no coincide con el
	// almacenado. Siempre es accionable por el usuario (recargar y reintentar);
	// nunca se reintenta en silencio.
	ErrConflictoConcurrencia = errors.New("conflicto de concurrencia: recargue y reintente")

	// ErrValidacion: magnitud cero, alcance vacío, precio resultante negativo,
	// lista destino inactiva, etc.
	ErrValidacion = errors.New("error de validación")

	// ErrSinCambios: todos los items candidatos eran no-op.
	ErrSinCambios = errors.New("la operación no produce ningún cambio")

	// ErrYaProcesado: reversión de un evento/lote ya revertido, o de una reversión.
	ErrYaProcesado = errors.New("el registro ya fue procesado")

	// ErrFalloTransitorio: falla de persistencia (timeout, contención). El
	// llamador puede reintentar; este subsistema no lo hace automáticamente.
	ErrFalloTransitorio = errors.New("fallo transitorio de persistencia")
)
