package repository

import (
	"context"
	"time"

	"credipos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventoCambioRepository persiste la auditoría de cambios directos.
// Tabla append-only: los eventos nunca se actualizan salvo la marca de revertido.
type EventoCambioRepository interface {
	CrearTx(tx *gorm.DB, e *model.EventoCambioPrecio) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.EventoCambioPrecio, error)
	Listar(ctx context.Context, page, limit int) ([]model.EventoCambioPrecio, int64, error)
	ListarPorProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.EventoCambioPrecio, int64, error)
	MarcarRevertidoTx(tx *gorm.DB, id uuid.UUID, por string, en time.Time) error
	DB() *gorm.DB
}

type eventoCambioRepo struct{ db *gorm.DB }

func NewEventoCambioRepository(db *gorm.DB) EventoCambioRepository {
	return &eventoCambioRepo{db: db}
}

func (r *eventoCambioRepo) CrearTx(tx *gorm.DB, e *model.EventoCambioPrecio) error {
	return tx.Create(e).Error
}

func (r *eventoCambioRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.EventoCambioPrecio, error) {
	var e model.EventoCambioPrecio
	err := r.db.WithContext(ctx).
		Preload("Detalles").
		Preload("Detalles.Producto").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventoCambioRepo) Listar(ctx context.Context, page, limit int) ([]model.EventoCambioPrecio, int64, error) {
	return r.listar(ctx, r.db.WithContext(ctx).Model(&model.EventoCambioPrecio{}), page, limit)
}

func (r *eventoCambioRepo) ListarPorProducto(ctx context.Context, productoID uuid.UUID, page, limit int) ([]model.EventoCambioPrecio, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.EventoCambioPrecio{}).
		Where("id IN (?)", r.db.Model(&model.DetalleCambioPrecio{}).
			Select("evento_id").
			Where("producto_id = ?", productoID))
	return r.listar(ctx, q, page, limit)
}

func (r *eventoCambioRepo) listar(_ context.Context, q *gorm.DB, page, limit int) ([]model.EventoCambioPrecio, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.EventoCambioPrecio
	err := q.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *eventoCambioRepo) MarcarRevertidoTx(tx *gorm.DB, id uuid.UUID, por string, en time.Time) error {
	return tx.Model(&model.EventoCambioPrecio{}).Where("id = ?", id).Updates(map[string]interface{}{
		"revertido_por": por,
		"revertido_at":  en,
	}).Error
}

func (r *eventoCambioRepo) DB() *gorm.DB { return r.db }
