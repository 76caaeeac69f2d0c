package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Modos de cálculo de un cambio masivo.
const (
	ModoPorcentajePrecio  = "porcentaje_precio"  // base = precio vigente
	ModoPorcentajeCosto   = "porcentaje_costo"   // base = costo
	ModoValorAbsoluto     = "valor_absoluto"     // precio vigente ± magnitud
	ModoAsignacionDirecta = "asignacion_directa" // precio = magnitud
)

// Direcciones de un cambio masivo.
const (
	DireccionAumento     = "aumento"
	DireccionDisminucion = "disminucion"
)

// Estados del ciclo de vida de un lote.
// simulado → {aprobado, rechazado, cancelado}; aprobado → {aplicado, cancelado};
// aplicado → revertido. rechazado, cancelado y revertido son terminales.
const (
	LoteSimulado  = "simulado"
	LoteAprobado  = "aprobado"
	LoteRechazado = "rechazado"
	LoteCancelado = "cancelado"
	LoteAplicado  = "aplicado"
	LoteRevertido = "revertido"
)

// LoteCambio es una solicitud gobernada de cambio masivo de precios.
// El alcance y las listas afectadas se guardan serializados (JSON) tal como se
// validaron en el borde de la API; nunca se reinterpretan de forma defensiva.
type LoteCambio struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string          `gorm:"not null"`
	Modo      string          `gorm:"not null"`
	Direccion string          `gorm:"not null"`
	Magnitud  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Alcance   string          `gorm:"type:text;not null"` // dto.AlcanceCambio serializado
	ListaIDs  string          `gorm:"type:text;not null"` // []uuid serializado
	Estado    string          `gorm:"not null;default:'simulado';index"`

	SolicitadoPor string `gorm:"not null"`
	SolicitadoAt  time.Time
	AprobadoPor   *string
	AprobadoAt    *time.Time
	AplicadoPor   *string
	AplicadoAt    *time.Time
	RevertidoPor  *string
	RevertidoAt   *time.Time

	MotivoReversion      string
	Notas                string
	LotePadreID          *uuid.UUID      `gorm:"type:uuid;index"` // solo en lotes creados por una reversión
	RequiereAutorizacion bool            `gorm:"not null;default:false"`
	PromedioCambioPct    decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0"`
	Version              uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Items []ItemLote `gorm:"foreignKey:LoteID"`
}

func (LoteCambio) TableName() string { return "lotes_cambios" }

// ItemLote es el detalle por (producto, lista) de un lote, creado en bloque al
// simular. Aplicado y Revertido son las únicas mutaciones posteriores.
type ItemLote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LoteID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	ListaID    uuid.UUID `gorm:"type:uuid;not null"`

	PrecioAnterior    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioNuevo       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeltaValor        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeltaPct          decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Costo             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MargenAnteriorPct decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	MargenNuevoPct    decimal.Decimal `gorm:"type:decimal(8,2);not null"`

	Advertencia        bool `gorm:"not null;default:false"`
	MensajeAdvertencia string
	Aplicado           bool `gorm:"not null;default:false"`
	Revertido          bool `gorm:"not null;default:false"`
	CreatedAt          time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (ItemLote) TableName() string { return "items_lotes" }
