package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AplicarCambioDirectoRequest es un ajuste porcentual inmediato, sin aprobación.
type AplicarCambioDirectoRequest struct {
	Alcance    AlcanceCambio   `json:"alcance"`
	ListaID    *string                 `json:"lista_id"   validate:"omitempty,uuid"`
	Porcentaje decimal.Decimal         `json:"porcentaje" validate:"required"`
	Motivo     string                  `json:"motivo"     validate:"required,min=3,max=250"`
}

type RevertirCambioDirectoRequest struct {
	Motivo string                  `json:"motivo" validate:"required,min=3,max=250"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CambioDirectoResponse struct {
	EventoID           string `json:"evento_id"`
	ProductosAfectados int    `json:"productos_afectados"`
}

type EventoCambioResponse struct {
	ID                 string                  `json:"id"`
	Usuario            string                  `json:"usuario"`
	DescripcionAlcance string                  `json:"descripcion_alcance"`
	Porcentaje         decimal.Decimal         `json:"porcentaje"`
	Motivo             string                  `json:"motivo"`
	CantidadProductos  int                     `json:"cantidad_productos"`
	ListaID            *string                 `json:"lista_id"`
	EsReversion        bool                    `json:"es_reversion"`
	EventoOrigenID     *string                 `json:"evento_origen_id"`
	RevertidoPor       *string                 `json:"revertido_por"`
	RevertidoAt        *string                 `json:"revertido_at"`
	CreatedAt          string                  `json:"created_at"`
	Detalles           []DetalleCambioResponse `json:"detalles,omitempty"`
}

type DetalleCambioResponse struct {
	ProductoID     string          `json:"producto_id"`
	ProductoNombre string          `json:"producto_nombre,omitempty"`
	PrecioAnterior decimal.Decimal `json:"precio_anterior"`
	PrecioNuevo    decimal.Decimal `json:"precio_nuevo"`
}

type EventoCambioListResponse struct {
	Data  []EventoCambioResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
