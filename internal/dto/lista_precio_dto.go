package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearListaPrecioRequest struct {
	Codigo     string          `json:"codigo"      validate:"required,min=2,max=30"`
	Nombre     string          `json:"nombre"      validate:"required,min=2,max=120"`
	Tipo       string          `json:"tipo"        validate:"omitempty,max=30"`
	MargenPct  decimal.Decimal `json:"margen_pct"`
	RecargoPct decimal.Decimal `json:"recargo_pct"`
	Redondeo   string          `json:"redondeo"    validate:"omitempty,oneof=ninguno unidad decena centena"`
	Orden      int             `json:"orden"       validate:"min=0"`
}

type ActualizarListaPrecioRequest struct {
	// Version es el token de concurrencia devuelto por la última lectura.
	Version    string           `json:"version"     validate:"required"`
	Nombre     *string          `json:"nombre"      validate:"omitempty,min=2,max=120"`
	Tipo       *string          `json:"tipo"        validate:"omitempty,max=30"`
	MargenPct  *decimal.Decimal `json:"margen_pct"`
	RecargoPct *decimal.Decimal `json:"recargo_pct"`
	Redondeo   *string          `json:"redondeo"    validate:"omitempty,oneof=ninguno unidad decena centena"`
	Orden      *int             `json:"orden"       validate:"omitempty,min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ListaPrecioResponse struct {
	ID               string          `json:"id"`
	Codigo           string          `json:"codigo"`
	Nombre           string          `json:"nombre"`
	Tipo             string          `json:"tipo"`
	MargenPct        decimal.Decimal `json:"margen_pct"`
	RecargoPct       decimal.Decimal `json:"recargo_pct"`
	Redondeo         string          `json:"redondeo"`
	Activa           bool            `json:"activa"`
	EsPredeterminada bool            `json:"es_predeterminada"`
	Orden            int             `json:"orden"`
	Version          string          `json:"version"`
}
