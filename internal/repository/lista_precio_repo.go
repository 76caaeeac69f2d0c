package repository

import (
	"context"

	"credipos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListaPrecioRepository es el acceso a datos del registro de listas de precios.
// Las escrituras condicionadas por versión devuelven false cuando la versión
// leída quedó vieja; la traducción a error de concurrencia es del service.
type ListaPrecioRepository interface {
	Crear(ctx context.Context, l *model.ListaPrecio) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ListaPrecio, error)
	ObtenerPorCodigo(ctx context.Context, codigo string) (*model.ListaPrecio, error)
	ObtenerPredeterminada(ctx context.Context) (*model.ListaPrecio, error)
	Listar(ctx context.Context, incluirInactivas bool) ([]model.ListaPrecio, error)

	// ActualizarConVersionTx guarda la lista solo si la versión almacenada sigue
	// siendo versionLeida; regenera lista.Version antes de escribir.
	ActualizarConVersionTx(tx *gorm.DB, l *model.ListaPrecio, versionLeida uuid.UUID) (bool, error)
	// LimpiarPredeterminadaTx quita el flag de predeterminada de toda lista
	// activa distinta de exceptoID.
	LimpiarPredeterminadaTx(tx *gorm.DB, exceptoID uuid.UUID) error

	DB() *gorm.DB
}

type listaPrecioRepo struct{ db *gorm.DB }

func NewListaPrecioRepository(db *gorm.DB) ListaPrecioRepository {
	return &listaPrecioRepo{db: db}
}

func (r *listaPrecioRepo) Crear(ctx context.Context, l *model.ListaPrecio) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listaPrecioRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ListaPrecio, error) {
	var l model.ListaPrecio
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listaPrecioRepo) ObtenerPorCodigo(ctx context.Context, codigo string) (*model.ListaPrecio, error) {
	var l model.ListaPrecio
	if err := r.db.WithContext(ctx).Where("codigo = ?", codigo).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listaPrecioRepo) ObtenerPredeterminada(ctx context.Context) (*model.ListaPrecio, error) {
	var l model.ListaPrecio
	err := r.db.WithContext(ctx).
		Where("es_predeterminada = true AND activa = true").
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listaPrecioRepo) Listar(ctx context.Context, incluirInactivas bool) ([]model.ListaPrecio, error) {
	q := r.db.WithContext(ctx).Order("orden ASC, codigo ASC")
	if !incluirInactivas {
		q = q.Where("activa = true")
	}
	var listas []model.ListaPrecio
	err := q.Find(&listas).Error
	return listas, err
}

func (r *listaPrecioRepo) ActualizarConVersionTx(tx *gorm.DB, l *model.ListaPrecio, versionLeida uuid.UUID) (bool, error) {
	l.Version = uuid.New()
	res := tx.Model(&model.ListaPrecio{}).
		Where("id = ? AND version = ?", l.ID, versionLeida).
		Updates(map[string]interface{}{
			"nombre":            l.Nombre,
			"tipo":              l.Tipo,
			"margen_pct":        l.MargenPct,
			"recargo_pct":       l.RecargoPct,
			"redondeo":          l.Redondeo,
			"activa":            l.Activa,
			"es_predeterminada": l.EsPredeterminada,
			"orden":             l.Orden,
			"version":           l.Version,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *listaPrecioRepo) LimpiarPredeterminadaTx(tx *gorm.DB, exceptoID uuid.UUID) error {
	return tx.Model(&model.ListaPrecio{}).
		Where("es_predeterminada = true AND id <> ?", exceptoID).
		Updates(map[string]interface{}{
			"es_predeterminada": false,
			"version":           uuid.New(),
		}).Error
}

func (r *listaPrecioRepo) DB() *gorm.DB { return r.db }
