package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reglas de redondeo aplicables a los precios calculados de una lista.
const (
	RedondeoNinguno = "ninguno"
	RedondeoUnidad  = "unidad"
	RedondeoDecena  = "decena"
	RedondeoCentena = "centena"
)

// ListaPrecio agrupa precios por canal de venta (mostrador, mayorista, crédito…).
// A lo sumo una lista activa puede ser la predeterminada. Baja lógica vía Activa;
// los precios históricos de una lista desactivada se conservan siempre.
type ListaPrecio struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo           string          `gorm:"uniqueIndex;not null"`
	Nombre           string          `gorm:"not null"`
	Tipo             string          `gorm:"not null;default:'venta'"`
	MargenPct        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	RecargoPct       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Redondeo         string          `gorm:"not null;default:'centena'"` // ninguno | unidad | decena | centena
	Activa           bool            `gorm:"not null;default:true"`
	EsPredeterminada bool            `gorm:"not null;default:false;index"`
	Orden            int             `gorm:"not null;default:0"`
	// Version es el token de concurrencia optimista: se regenera en cada escritura
	// y el cliente debe devolver el último valor leído (base64 en la API).
	Version   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ListaPrecio) TableName() string { return "listas_precios" }
