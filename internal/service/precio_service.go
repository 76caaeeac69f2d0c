package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credipos/internal/dto"
	"credipos/internal/model"
	"credipos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PrecioService expone la línea temporal de precios: consulta del vigente
// (opcionalmente a una fecha), historial por par y asignación manual puntual.
type PrecioService interface {
	ObtenerVigente(ctx context.Context, productoID, listaID uuid.UUID, momento *time.Time) (*dto.PrecioVigenteResponse, error)
	VigentesPorProducto(ctx context.Context, productoID uuid.UUID) ([]dto.PrecioVigenteResponse, error)
	Historial(ctx context.Context, productoID, listaID uuid.UUID, page, limit int) (*dto.HistorialPreciosResponse, error)
	// AsignarManual fija un precio explícito en un par (producto, lista) y deja
	// el rastro de auditoría correspondiente (evento de un solo detalle).
	AsignarManual(ctx context.Context, actor string, productoID, listaID uuid.UUID, req dto.AsignarPrecioManualRequest) (*dto.PrecioVigenteResponse, error)
}

type precioService struct {
	precioRepo   repository.PrecioProductoRepository
	productoRepo repository.ProductoRepository
	listaRepo    repository.ListaPrecioRepository
	eventoRepo   repository.EventoCambioRepository
	cache        CachePrecios
}

func NewPrecioService(
	precioRepo repository.PrecioProductoRepository,
	productoRepo repository.ProductoRepository,
	listaRepo repository.ListaPrecioRepository,
	eventoRepo repository.EventoCambioRepository,
	cache CachePrecios,
) PrecioService {
	return &precioService{
		precioRepo:   precioRepo,
		productoRepo: productoRepo,
		listaRepo:    listaRepo,
		eventoRepo:   eventoRepo,
		cache:        cache,
	}
}

func mapPrecio(p *model.PrecioProducto) *dto.PrecioVigenteResponse {
	resp := &dto.PrecioVigenteResponse{
		ID:           p.ID.String(),
		ProductoID:   p.ProductoID.String(),
		ListaID:      p.ListaID.String(),
		VigenteDesde: p.VigenteDesde.Format(time.RFC3339),
		Costo:        p.Costo,
		Precio:       p.Precio,
		MargenValor:  p.MargenValor,
		MargenPct:    p.MargenPct,
		Manual:       p.Manual,
		Vigente:      p.Vigente,
		CreadoPor:    p.CreadoPor,
		Nota:         p.Nota,
	}
	if p.VigenteHasta != nil {
		h := p.VigenteHasta.Format(time.RFC3339)
		resp.VigenteHasta = &h
	}
	if p.LoteID != nil {
		l := p.LoteID.String()
		resp.LoteID = &l
	}
	if p.Lista != nil {
		resp.ListaNombre = p.Lista.Nombre
	}
	return resp
}

func (s *precioService) ObtenerVigente(ctx context.Context, productoID, listaID uuid.UUID, momento *time.Time) (*dto.PrecioVigenteResponse, error) {
	var (
		p   *model.PrecioProducto
		err error
	)
	if momento == nil {
		p, err = s.precioRepo.ObtenerVigente(ctx, productoID, listaID)
	} else {
		p, err = s.precioRepo.ObtenerVigenteEn(ctx, productoID, listaID, *momento)
	}
	if err != nil {
		return nil, noEncontradoSi(err, "precio vigente")
	}
	return mapPrecio(p), nil
}

func (s *precioService) VigentesPorProducto(ctx context.Context, productoID uuid.UUID) ([]dto.PrecioVigenteResponse, error) {
	if _, err := s.productoRepo.ObtenerPorID(ctx, productoID); err != nil {
		return nil, noEncontradoSi(err, "producto")
	}
	rows, err := s.precioRepo.VigentesPorProducto(ctx, productoID)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	result := make([]dto.PrecioVigenteResponse, 0, len(rows))
	for i := range rows {
		result = append(result, *mapPrecio(&rows[i]))
	}
	return result, nil
}

func (s *precioService) Historial(ctx context.Context, productoID, listaID uuid.UUID, page, limit int) (*dto.HistorialPreciosResponse, error) {
	rows, total, err := s.precioRepo.Historial(ctx, productoID, listaID, page, limit)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	data := make([]dto.PrecioVigenteResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *mapPrecio(&rows[i]))
	}
	return &dto.HistorialPreciosResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *precioService) AsignarManual(ctx context.Context, actor string, productoID, listaID uuid.UUID, req dto.AsignarPrecioManualRequest) (*dto.PrecioVigenteResponse, error) {
	if req.Precio.IsNegative() {
		return nil, fmt.Errorf("el precio no puede ser negativo: %w", ErrValidacion)
	}

	producto, err := s.productoRepo.ObtenerPorID(ctx, productoID)
	if err != nil {
		return nil, noEncontradoSi(err, "producto")
	}
	lista, err := s.listaRepo.ObtenerPorID(ctx, listaID)
	if err != nil {
		return nil, noEncontradoSi(err, "lista")
	}
	if !lista.Activa {
		return nil, fmt.Errorf("la lista %q está inactiva: %w", lista.Codigo, ErrValidacion)
	}

	anterior, err := s.precioRepo.ObtenerVigente(ctx, productoID, listaID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, clasificarTxError(err)
	}
	precioAnterior := producto.PrecioVenta
	if anterior != nil {
		precioAnterior = anterior.Precio
		if req.Precio.Equal(anterior.Precio) {
			return nil, fmt.Errorf("el precio ya es %s: %w", req.Precio, ErrSinCambios)
		}
	}

	ahora := time.Now()
	nuevo := &model.PrecioProducto{
		ProductoID:   productoID,
		ListaID:      listaID,
		VigenteDesde: ahora,
		Costo:        producto.PrecioCosto,
		Precio:       req.Precio,
		MargenValor:  req.Precio.Sub(producto.PrecioCosto),
		MargenPct:    CalcularMargen(req.Precio, producto.PrecioCosto),
		Manual:       true,
		CreadoPor:    actor,
		Nota:         req.Nota,
	}

	txErr := runTx(ctx, s.precioRepo.DB(), func(tx *gorm.DB) error {
		if err := s.precioRepo.AsignarVigenteTx(tx, nuevo); err != nil {
			if errors.Is(err, repository.ErrRetrodatado) {
				return fmt.Errorf("%v: %w", err, ErrEstadoInvalido)
			}
			return err
		}

		lid := listaID
		evento := &model.EventoCambioPrecio{
			Usuario:            actor,
			DescripcionAlcance: fmt.Sprintf("asignación manual: %s en %s", producto.Nombre, lista.Codigo),
			Porcentaje:         CalcularDeltaPct(precioAnterior, req.Precio).Round(2),
			Motivo:             req.Nota,
			CantidadProductos:  1,
			ListaID:            &lid,
			Detalles: []model.DetalleCambioPrecio{{
				ProductoID:     productoID,
				PrecioAnterior: precioAnterior,
				PrecioNuevo:    req.Precio,
			}},
		}
		return s.eventoRepo.CrearTx(tx, evento)
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}

	invalidarCachePrecio(ctx, s.cache, producto.CodigoBarras)
	return mapPrecio(nuevo), nil
}

// CachePrecios es lo único que los services necesitan de redis para invalidar
// la consulta pública de precios. *redis.Client lo satisface.
type CachePrecios interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// invalidarCachePrecio borra la entrada de cache de la consulta pública.
// Best effort: un miss posterior la repuebla.
func invalidarCachePrecio(ctx context.Context, cache CachePrecios, codigoBarras string) {
	if cache == nil || codigoBarras == "" {
		return
	}
	_ = cache.Del(ctx, "precio:"+codigoBarras).Err()
}
