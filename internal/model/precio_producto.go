package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrecioProducto es un tramo de la línea temporal de precios de un par
// (producto, lista). Invariantes:
//   - a lo sumo un tramo con Vigente=true por par, y ese tramo tiene VigenteHasta nil;
//   - los intervalos [VigenteDesde, VigenteHasta) de un par nunca se superponen.
//
// Los tramos nunca se actualizan salvo el cierre de intervalo (fijar VigenteHasta y
// limpiar Vigente) inmediatamente antes de insertar el sucesor; ambas escrituras
// forman una sola unidad atómica.
type PrecioProducto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID   uuid.UUID `gorm:"type:uuid;not null;index:idx_precio_par"`
	ListaID      uuid.UUID `gorm:"type:uuid;not null;index:idx_precio_par"`
	VigenteDesde time.Time `gorm:"not null"`
	// VigenteHasta en nil marca el tramo abierto.
	VigenteHasta *time.Time
	Costo        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Precio       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MargenValor  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MargenPct    decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Manual       bool            `gorm:"not null;default:false"`
	Vigente      bool            `gorm:"not null;default:false;index"`
	LoteID       *uuid.UUID      `gorm:"type:uuid;index"`
	CreadoPor    string          `gorm:"not null"`
	Nota         string
	CreatedAt    time.Time

	Producto *Producto    `gorm:"foreignKey:ProductoID"`
	Lista    *ListaPrecio `gorm:"foreignKey:ListaID"`
}

func (PrecioProducto) TableName() string { return "precios_productos" }
