package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventoCambioPrecio registra una invocación de cambio directo de precios.
// Los eventos nunca se eliminan: revertir crea un evento nuevo de tipo reversión
// que apunta al original, y el original queda marcado con RevertidoAt/Por.
type EventoCambioPrecio struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Usuario            string          `gorm:"not null"`
	DescripcionAlcance string          `gorm:"not null"`
	Porcentaje         decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Motivo             string          `gorm:"not null"`
	CantidadProductos  int             `gorm:"not null"`
	ListaID            *uuid.UUID      `gorm:"type:uuid;index"`
	EsReversion        bool            `gorm:"not null;default:false"`
	EventoOrigenID     *uuid.UUID      `gorm:"type:uuid;index"` // solo en reversiones
	RevertidoPor       *string
	RevertidoAt        *time.Time
	CreatedAt          time.Time

	Detalles []DetalleCambioPrecio `gorm:"foreignKey:EventoID"`
}

func (EventoCambioPrecio) TableName() string { return "eventos_cambio_precio" }

// DetalleCambioPrecio es el antes/después por producto de un evento.
type DetalleCambioPrecio struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventoID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PrecioAnterior decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioNuevo    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (DetalleCambioPrecio) TableName() string { return "detalles_cambio_precio" }
