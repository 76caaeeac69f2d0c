package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto es la vista de catálogo que consume este subsistema. El alta y el
// mantenimiento (nombre, SKU, stock) viven en el módulo de catálogo de la
// plataforma; acá solo se lee, salvo PrecioVenta/MargenPct que se mantienen en
// sincronía con el precio vigente al aplicar cambios.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoBarras string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	CategoriaID  *uuid.UUID      `gorm:"type:uuid;index"`
	MarcaID      *uuid.UUID      `gorm:"type:uuid;index"`
	PrecioCosto  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// PrecioVenta es el precio plano, no asociado a lista. Se actualiza junto con
	// cada cambio directo para que los consumidores que ignoran listas sigan
	// viendo un precio coherente.
	PrecioVenta decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MargenPct se deriva de (PrecioVenta - PrecioCosto) / PrecioCosto * 100.
	MargenPct   decimal.Decimal `gorm:"type:decimal(8,2)"`
	StockActual int             `gorm:"not null;default:0"`
	StockMinimo int             `gorm:"not null;default:5"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
	Marca     *Marca     `gorm:"foreignKey:MarcaID"`
}

func (Producto) TableName() string { return "productos" }
