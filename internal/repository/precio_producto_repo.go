package repository

import (
	"context"
	"errors"
	"time"

	"credipos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRetrodatado se devuelve cuando un alta de precio pretende empezar antes
// del inicio del tramo vigente del mismo par (producto, lista).
var ErrRetrodatado = errors.New("vigente_desde anterior al tramo vigente")

// PrecioProductoRepository es el dueño de la línea temporal de precios.
// El par cierre-de-tramo + alta-de-sucesor es una sola unidad atómica y se
// ejecuta siempre dentro de la transacción del llamador (métodos *Tx).
type PrecioProductoRepository interface {
	ObtenerVigente(ctx context.Context, productoID, listaID uuid.UUID) (*model.PrecioProducto, error)
	// ObtenerVigenteEn recorre la línea temporal completa buscando el tramo cuyo
	// intervalo contiene el instante dado.
	ObtenerVigenteEn(ctx context.Context, productoID, listaID uuid.UUID, momento time.Time) (*model.PrecioProducto, error)
	VigentesPorProducto(ctx context.Context, productoID uuid.UUID) ([]model.PrecioProducto, error)
	Historial(ctx context.Context, productoID, listaID uuid.UUID, page, limit int) ([]model.PrecioProducto, int64, error)

	// AsignarVigenteTx cierra el tramo abierto del par (si existe) en
	// nuevo.VigenteDesde y da de alta el sucesor como vigente, todo dentro de tx.
	// Devuelve ErrRetrodatado si nuevo.VigenteDesde precede al inicio del tramo
	// abierto.
	AsignarVigenteTx(tx *gorm.DB, nuevo *model.PrecioProducto) error

	DB() *gorm.DB
}

type precioProductoRepo struct{ db *gorm.DB }

func NewPrecioProductoRepository(db *gorm.DB) PrecioProductoRepository {
	return &precioProductoRepo{db: db}
}

func (r *precioProductoRepo) ObtenerVigente(ctx context.Context, productoID, listaID uuid.UUID) (*model.PrecioProducto, error) {
	var p model.PrecioProducto
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND lista_id = ? AND vigente = true", productoID, listaID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *precioProductoRepo) ObtenerVigenteEn(ctx context.Context, productoID, listaID uuid.UUID, momento time.Time) (*model.PrecioProducto, error) {
	var p model.PrecioProducto
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND lista_id = ?", productoID, listaID).
		Where("vigente_desde <= ?", momento).
		Where("vigente_hasta IS NULL OR vigente_hasta > ?", momento).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *precioProductoRepo) VigentesPorProducto(ctx context.Context, productoID uuid.UUID) ([]model.PrecioProducto, error) {
	var rows []model.PrecioProducto
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND vigente = true", productoID).
		Preload("Lista").
		Find(&rows).Error
	return rows, err
}

// Historial devuelve los tramos de un par ordenados del más reciente al más
// antiguo (tabla append-only, el orden por vigente_desde refleja la inserción).
func (r *precioProductoRepo) Historial(ctx context.Context, productoID, listaID uuid.UUID, page, limit int) ([]model.PrecioProducto, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.PrecioProducto{}).
		Where("producto_id = ? AND lista_id = ?", productoID, listaID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PrecioProducto
	if err := q.Order("vigente_desde DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *precioProductoRepo) AsignarVigenteTx(tx *gorm.DB, nuevo *model.PrecioProducto) error {
	// Lock exclusivo sobre el tramo abierto del par: serializa escritores
	// concurrentes del mismo (producto, lista) sin bloquear lectores.
	var actual model.PrecioProducto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("producto_id = ? AND lista_id = ? AND vigente = true", nuevo.ProductoID, nuevo.ListaID).
		First(&actual).Error

	switch {
	case err == nil:
		if nuevo.VigenteDesde.Before(actual.VigenteDesde) {
			return ErrRetrodatado
		}
		if err := tx.Model(&model.PrecioProducto{}).
			Where("id = ?", actual.ID).
			Updates(map[string]interface{}{
				"vigente_hasta": nuevo.VigenteDesde,
				"vigente":       false,
			}).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Primer tramo del par: nada que cerrar.
	default:
		return err
	}

	nuevo.Vigente = true
	nuevo.VigenteHasta = nil
	return tx.Create(nuevo).Error
}

func (r *precioProductoRepo) DB() *gorm.DB { return r.db }
