package repository

import (
	"context"

	"credipos/internal/dto"
	"credipos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoteCambioRepository persiste lotes de cambio masivo y sus items.
type LoteCambioRepository interface {
	// CrearTx da de alta el lote con todos sus items en bloque.
	CrearTx(tx *gorm.DB, lote *model.LoteCambio) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.LoteCambio, error)
	Listar(ctx context.Context, filter dto.LoteFilter) ([]model.LoteCambio, int64, error)

	// ActualizarConVersionTx guarda los campos mutables del lote solo si la
	// versión almacenada sigue siendo versionLeida; regenera lote.Version.
	ActualizarConVersionTx(tx *gorm.DB, lote *model.LoteCambio, versionLeida uuid.UUID) (bool, error)
	// MarcarItemTx persiste los flags aplicado/revertido de un item.
	MarcarItemTx(tx *gorm.DB, itemID uuid.UUID, aplicado, revertido bool) error

	DB() *gorm.DB
}

type loteCambioRepo struct{ db *gorm.DB }

func NewLoteCambioRepository(db *gorm.DB) LoteCambioRepository {
	return &loteCambioRepo{db: db}
}

func (r *loteCambioRepo) CrearTx(tx *gorm.DB, lote *model.LoteCambio) error {
	return tx.Create(lote).Error
}

func (r *loteCambioRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.LoteCambio, error) {
	var lote model.LoteCambio
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Producto").
		First(&lote, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lote, nil
}

func (r *loteCambioRepo) Listar(ctx context.Context, filter dto.LoteFilter) ([]model.LoteCambio, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	q := r.db.WithContext(ctx).Model(&model.LoteCambio{})
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var lotes []model.LoteCambio
	err := q.Order("created_at DESC").
		Limit(filter.Limit).Offset((filter.Page - 1) * filter.Limit).
		Find(&lotes).Error
	return lotes, total, err
}

func (r *loteCambioRepo) ActualizarConVersionTx(tx *gorm.DB, lote *model.LoteCambio, versionLeida uuid.UUID) (bool, error) {
	lote.Version = uuid.New()
	res := tx.Model(&model.LoteCambio{}).
		Where("id = ? AND version = ?", lote.ID, versionLeida).
		Updates(map[string]interface{}{
			"estado":           lote.Estado,
			"aprobado_por":     lote.AprobadoPor,
			"aprobado_at":      lote.AprobadoAt,
			"aplicado_por":     lote.AplicadoPor,
			"aplicado_at":      lote.AplicadoAt,
			"revertido_por":    lote.RevertidoPor,
			"revertido_at":     lote.RevertidoAt,
			"motivo_reversion": lote.MotivoReversion,
			"notas":            lote.Notas,
			"version":          lote.Version,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *loteCambioRepo) MarcarItemTx(tx *gorm.DB, itemID uuid.UUID, aplicado, revertido bool) error {
	return tx.Model(&model.ItemLote{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"aplicado":  aplicado,
		"revertido": revertido,
	}).Error
}

func (r *loteCambioRepo) DB() *gorm.DB { return r.db }
