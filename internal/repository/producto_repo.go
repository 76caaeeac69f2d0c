package repository

import (
	"context"

	"credipos/internal/dto"
	"credipos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoRepository es la vista de catálogo que consume el subsistema de
// precios: existencia, costo/precio plano y pertenencia a categoría/marca.
// La única escritura permitida es la sincronización del precio plano dentro de
// la transacción de un cambio.
type ProductoRepository interface {
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	ObtenerPorBarcode(ctx context.Context, codigo string) (*model.Producto, error)
	// ResolverAlcance materializa el conjunto de productos de un alcance: ids
	// explícitos, o filtro por categoría/marca/texto/stock.
	ResolverAlcance(ctx context.Context, alcance dto.AlcanceCambio) ([]model.Producto, error)

	// ActualizarPrecioVentaTx sincroniza el precio plano y el margen derivado
	// dentro de la transacción del llamador.
	ActualizarPrecioVentaTx(tx *gorm.DB, id uuid.UUID, precio, margen decimal.Decimal) error

	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) ObtenerPorBarcode(ctx context.Context, codigo string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("codigo_barras = ? AND activo = true", codigo).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) ResolverAlcance(ctx context.Context, alcance dto.AlcanceCambio) ([]model.Producto, error) {
	q := r.db.WithContext(ctx).Model(&model.Producto{}).Order("nombre ASC")

	// Los ids explícitos anulan cualquier otro filtro.
	if alcance.Explicito() {
		q = q.Where("id IN ?", alcance.ProductoIDs)
	} else {
		if alcance.SoloActivos {
			q = q.Where("activo = true")
		}
		if len(alcance.CategoriaIDs) > 0 {
			q = q.Where("categoria_id IN ?", alcance.CategoriaIDs)
		}
		if len(alcance.MarcaIDs) > 0 {
			q = q.Where("marca_id IN ?", alcance.MarcaIDs)
		}
		if alcance.TextoBusqueda != "" {
			q = q.Where("nombre ILIKE ?", "%"+alcance.TextoBusqueda+"%")
		}
		if alcance.SoloBajoStock {
			q = q.Where("stock_actual <= stock_minimo")
		}
	}

	var productos []model.Producto
	err := q.Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ActualizarPrecioVentaTx(tx *gorm.DB, id uuid.UUID, precio, margen decimal.Decimal) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).Updates(map[string]interface{}{
		"precio_venta": precio,
		"margen_pct":   margen,
	}).Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
