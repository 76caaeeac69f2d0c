package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SimularLoteRequest struct {
	Nombre    string          `json:"nombre"    validate:"required,min=3,max=120"`
	Modo      string          `json:"modo"      validate:"required,oneof=porcentaje_precio porcentaje_costo valor_absoluto asignacion_directa"`
	Direccion string          `json:"direccion" validate:"required,oneof=aumento disminucion"`
	Magnitud  decimal.Decimal `json:"magnitud"  validate:"required"`
	Alcance   AlcanceCambio   `json:"alcance"`
	ListaIDs  []string        `json:"lista_ids" validate:"required,min=1,dive,uuid"`
}

// TransicionLoteRequest cubre aprobar / rechazar / cancelar / aplicar / revertir.
// Version es el token de concurrencia leído junto con el lote.
type TransicionLoteRequest struct {
	Version       string  `json:"version" validate:"required"`
	Motivo        string  `json:"motivo"  validate:"omitempty,max=250"`
	FechaEfectiva *string `json:"fecha_efectiva" validate:"omitempty"` // RFC3339, solo aplicar
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type LoteFilter struct {
	Estado string `form:"estado" validate:"omitempty,oneof=simulado aprobado rechazado cancelado aplicado revertido"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoteCambioResponse struct {
	ID        string          `json:"id"`
	Nombre    string          `json:"nombre"`
	Modo      string          `json:"modo"`
	Direccion string          `json:"direccion"`
	Magnitud  decimal.Decimal `json:"magnitud"`
	Alcance   AlcanceCambio   `json:"alcance"`
	ListaIDs  []string        `json:"lista_ids"`
	Estado    string          `json:"estado"`

	SolicitadoPor string  `json:"solicitado_por"`
	SolicitadoAt  string  `json:"solicitado_at"`
	AprobadoPor   *string `json:"aprobado_por"`
	AprobadoAt    *string `json:"aprobado_at"`
	AplicadoPor   *string `json:"aplicado_por"`
	AplicadoAt    *string `json:"aplicado_at"`
	RevertidoPor  *string `json:"revertido_por"`
	RevertidoAt   *string `json:"revertido_at"`

	MotivoReversion      string             `json:"motivo_reversion,omitempty"`
	Notas                string             `json:"notas,omitempty"`
	LotePadreID          *string            `json:"lote_padre_id"`
	RequiereAutorizacion bool               `json:"requiere_autorizacion"`
	PromedioCambioPct    decimal.Decimal    `json:"promedio_cambio_pct"`
	Version              string             `json:"version"`
	CantidadItems        int                `json:"cantidad_items"`
	Items                []ItemLoteResponse `json:"items,omitempty"`
}

type ItemLoteResponse struct {
	ID                 string          `json:"id"`
	ProductoID         string          `json:"producto_id"`
	ProductoNombre     string          `json:"producto_nombre,omitempty"`
	ListaID            string          `json:"lista_id"`
	PrecioAnterior     decimal.Decimal `json:"precio_anterior"`
	PrecioNuevo        decimal.Decimal `json:"precio_nuevo"`
	DeltaValor         decimal.Decimal `json:"delta_valor"`
	DeltaPct           decimal.Decimal `json:"delta_pct"`
	Costo              decimal.Decimal `json:"costo"`
	MargenAnteriorPct  decimal.Decimal `json:"margen_anterior_pct"`
	MargenNuevoPct     decimal.Decimal `json:"margen_nuevo_pct"`
	Advertencia        bool            `json:"advertencia"`
	MensajeAdvertencia string          `json:"mensaje_advertencia,omitempty"`
	Aplicado           bool            `json:"aplicado"`
	Revertido          bool            `json:"revertido"`
}

type LoteListResponse struct {
	Data  []LoteCambioResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
