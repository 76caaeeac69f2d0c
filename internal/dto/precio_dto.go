package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AsignarPrecioManualRequest fija un precio explícito en un par (producto, lista).
type AsignarPrecioManualRequest struct {
	Precio decimal.Decimal `json:"precio" validate:"required"`
	Nota   string          `json:"nota"   validate:"omitempty,max=250"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// PrecioVigenteResponse es un tramo de la línea temporal de un par.
type PrecioVigenteResponse struct {
	ID           string          `json:"id"`
	ProductoID   string          `json:"producto_id"`
	ListaID      string          `json:"lista_id"`
	ListaNombre  string          `json:"lista_nombre,omitempty"`
	VigenteDesde string          `json:"vigente_desde"`
	VigenteHasta *string         `json:"vigente_hasta"`
	Costo        decimal.Decimal `json:"costo"`
	Precio       decimal.Decimal `json:"precio"`
	MargenValor  decimal.Decimal `json:"margen_valor"`
	MargenPct    decimal.Decimal `json:"margen_pct"`
	Manual       bool            `json:"manual"`
	Vigente      bool            `json:"vigente"`
	LoteID       *string         `json:"lote_id"`
	CreadoPor    string          `json:"creado_por"`
	Nota         string          `json:"nota,omitempty"`
}

type HistorialPreciosResponse struct {
	Data  []PrecioVigenteResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// ConsultaPrecioResponse es la respuesta del endpoint público de consulta.
type ConsultaPrecioResponse struct {
	Nombre          string          `json:"nombre"`
	Precio          decimal.Decimal `json:"precio"`
	Lista           string          `json:"lista"`
	StockDisponible int             `json:"stock_disponible"`
}
