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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CambioDirectoService aplica ajustes porcentuales inmediatos (sin circuito de
// aprobación) sobre un alcance de productos, con auditoría por evento y
// reversión de un solo nivel.
type CambioDirectoService interface {
	Aplicar(ctx context.Context, actor string, req dto.AplicarCambioDirectoRequest) (*dto.CambioDirectoResponse, error)
	Revertir(ctx context.Context, actor string, eventoID uuid.UUID, motivo string) (*dto.CambioDirectoResponse, error)
	ObtenerEvento(ctx context.Context, id uuid.UUID) (*dto.EventoCambioResponse, error)
	ListarEventos(ctx context.Context, page, limit int) (*dto.EventoCambioListResponse, error)
	// ListarEventosPorProducto devuelve los eventos que tocaron un producto,
	// del más reciente al más antiguo.
	ListarEventosPorProducto(ctx context.Context, productoID uuid.UUID, page, limit int) (*dto.EventoCambioListResponse, error)
}

type cambioDirectoService struct {
	eventoRepo   repository.EventoCambioRepository
	productoRepo repository.ProductoRepository
	precioRepo   repository.PrecioProductoRepository
	listaRepo    repository.ListaPrecioRepository
	cache        CachePrecios
}

func NewCambioDirectoService(
	eventoRepo repository.EventoCambioRepository,
	productoRepo repository.ProductoRepository,
	precioRepo repository.PrecioProductoRepository,
	listaRepo repository.ListaPrecioRepository,
	cache CachePrecios,
) CambioDirectoService {
	return &cambioDirectoService{
		eventoRepo:   eventoRepo,
		productoRepo: productoRepo,
		precioRepo:   precioRepo,
		listaRepo:    listaRepo,
		cache:        cache,
	}
}

// ── Aplicar ──────────────────────────────────────────────────────────────────
// Pre-flight completo fuera de la transacción: resolver alcance, calcular
// candidatos y validar. Recién después una única transacción ACID escribe
// evento + detalles + precios. Un precio resultante negativo aborta todo.

func (s *cambioDirectoService) Aplicar(ctx context.Context, actor string, req dto.AplicarCambioDirectoRequest) (*dto.CambioDirectoResponse, error) {
	if req.Porcentaje.IsZero() {
		return nil, fmt.Errorf("el porcentaje no puede ser cero: %w", ErrValidacion)
	}
	if req.Alcance.Vacio() {
		return nil, fmt.Errorf("el alcance no selecciona ningún producto: %w", ErrValidacion)
	}

	var lista *model.ListaPrecio
	if req.ListaID != nil {
		listaID, err := uuid.Parse(*req.ListaID)
		if err != nil {
			return nil, fmt.Errorf("lista_id inválido: %w", ErrValidacion)
		}
		lista, err = s.listaRepo.ObtenerPorID(ctx, listaID)
		if err != nil {
			return nil, noEncontradoSi(err, "lista")
		}
		if !lista.Activa {
			return nil, fmt.Errorf("la lista %q está inactiva: %w", lista.Codigo, ErrValidacion)
		}
	}

	productos, err := s.productoRepo.ResolverAlcance(ctx, req.Alcance)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	if len(productos) == 0 {
		return nil, fmt.Errorf("el alcance no resolvió ningún producto: %w", ErrValidacion)
	}

	type candidato struct {
		producto *model.Producto
		anterior decimal.Decimal
		nuevo    decimal.Decimal
	}

	factor := decimal.NewFromInt(1).Add(req.Porcentaje.Div(cien))
	var cambios []candidato
	for i := range productos {
		p := &productos[i]

		base := p.PrecioVenta
		if lista != nil {
			if vigente, err := s.precioRepo.ObtenerVigente(ctx, p.ID, lista.ID); err == nil {
				base = vigente.Precio
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, clasificarTxError(err)
			}
		}

		// Redondeo fijo a 2 decimales, half-away-from-zero.
		nuevo := base.Mul(factor).Round(2)
		if nuevo.IsNegative() {
			return nil, fmt.Errorf("precio resultante negativo para %q: %w", p.Nombre, ErrValidacion)
		}
		if nuevo.Equal(base) {
			continue // no-op por producto
		}
		cambios = append(cambios, candidato{producto: p, anterior: base, nuevo: nuevo})
	}
	if len(cambios) == 0 {
		return nil, fmt.Errorf("todos los productos ya estaban en el precio objetivo: %w", ErrSinCambios)
	}

	evento := &model.EventoCambioPrecio{
		Usuario:            actor,
		DescripcionAlcance: req.Alcance.Descripcion(),
		Porcentaje:         req.Porcentaje,
		Motivo:             req.Motivo,
		CantidadProductos:  len(cambios),
	}
	if lista != nil {
		lid := lista.ID
		evento.ListaID = &lid
	}

	ahora := time.Now()
	txErr := runTx(ctx, s.eventoRepo.DB(), func(tx *gorm.DB) error {
		for _, c := range cambios {
			evento.Detalles = append(evento.Detalles, model.DetalleCambioPrecio{
				ProductoID:     c.producto.ID,
				PrecioAnterior: c.anterior,
				PrecioNuevo:    c.nuevo,
			})
		}
		if err := s.eventoRepo.CrearTx(tx, evento); err != nil {
			return err
		}

		for _, c := range cambios {
			if lista != nil {
				nuevo := &model.PrecioProducto{
					ProductoID:   c.producto.ID,
					ListaID:      lista.ID,
					VigenteDesde: ahora,
					Costo:        c.producto.PrecioCosto,
					Precio:       c.nuevo,
					MargenValor:  c.nuevo.Sub(c.producto.PrecioCosto),
					MargenPct:    CalcularMargen(c.nuevo, c.producto.PrecioCosto),
					CreadoPor:    actor,
					Nota:         req.Motivo,
				}
				if err := s.precioRepo.AsignarVigenteTx(tx, nuevo); err != nil {
					if errors.Is(err, repository.ErrRetrodatado) {
						return fmt.Errorf("%v: %w", err, ErrEstadoInvalido)
					}
					return err
				}
			}
			// El precio plano se sincroniza siempre, haya lista o no.
			margen := CalcularMargen(c.nuevo, c.producto.PrecioCosto)
			if err := s.productoRepo.ActualizarPrecioVentaTx(tx, c.producto.ID, c.nuevo, margen); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}

	for _, c := range cambios {
		invalidarCachePrecio(ctx, s.cache, c.producto.CodigoBarras)
	}
	return &dto.CambioDirectoResponse{
		EventoID:           evento.ID.String(),
		ProductosAfectados: len(cambios),
	}, nil
}

// ── Revertir ─────────────────────────────────────────────────────────────────
// La reversión nunca borra: crea un evento nuevo de tipo reversión con los
// antes/después intercambiados, reaplica los precios anteriores y marca el
// evento original como revertido. Una reversión no es revertible a su vez.

func (s *cambioDirectoService) Revertir(ctx context.Context, actor string, eventoID uuid.UUID, motivo string) (*dto.CambioDirectoResponse, error) {
	original, err := s.eventoRepo.ObtenerPorID(ctx, eventoID)
	if err != nil {
		return nil, noEncontradoSi(err, "evento")
	}
	if original.EsReversion {
		return nil, fmt.Errorf("una reversión no puede revertirse: %w", ErrYaProcesado)
	}
	if original.RevertidoAt != nil {
		return nil, fmt.Errorf("el evento ya fue revertido: %w", ErrYaProcesado)
	}

	origenID := original.ID
	reversion := &model.EventoCambioPrecio{
		Usuario:            actor,
		DescripcionAlcance: "reversión de: " + original.DescripcionAlcance,
		Porcentaje:         original.Porcentaje.Neg(),
		Motivo:             motivo,
		CantidadProductos:  len(original.Detalles),
		ListaID:            original.ListaID,
		EsReversion:        true,
		EventoOrigenID:     &origenID,
	}

	ahora := time.Now()
	var barcodes []string
	txErr := runTx(ctx, s.eventoRepo.DB(), func(tx *gorm.DB) error {
		for _, d := range original.Detalles {
			reversion.Detalles = append(reversion.Detalles, model.DetalleCambioPrecio{
				ProductoID:     d.ProductoID,
				PrecioAnterior: d.PrecioNuevo,
				PrecioNuevo:    d.PrecioAnterior,
			})
		}
		if err := s.eventoRepo.CrearTx(tx, reversion); err != nil {
			return err
		}

		for _, d := range original.Detalles {
			producto, err := s.productoRepo.ObtenerPorID(ctx, d.ProductoID)
			if err != nil {
				return noEncontradoSi(err, "producto")
			}
			barcodes = append(barcodes, producto.CodigoBarras)

			if original.ListaID != nil {
				nuevo := &model.PrecioProducto{
					ProductoID:   d.ProductoID,
					ListaID:      *original.ListaID,
					VigenteDesde: ahora,
					Costo:        producto.PrecioCosto,
					Precio:       d.PrecioAnterior,
					MargenValor:  d.PrecioAnterior.Sub(producto.PrecioCosto),
					MargenPct:    CalcularMargen(d.PrecioAnterior, producto.PrecioCosto),
					CreadoPor:    actor,
					Nota:         motivo,
				}
				if err := s.precioRepo.AsignarVigenteTx(tx, nuevo); err != nil {
					return err
				}
			}
			margen := CalcularMargen(d.PrecioAnterior, producto.PrecioCosto)
			if err := s.productoRepo.ActualizarPrecioVentaTx(tx, d.ProductoID, d.PrecioAnterior, margen); err != nil {
				return err
			}
		}

		return s.eventoRepo.MarcarRevertidoTx(tx, original.ID, actor, ahora)
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}

	for _, cb := range barcodes {
		invalidarCachePrecio(ctx, s.cache, cb)
	}
	return &dto.CambioDirectoResponse{
		EventoID:           reversion.ID.String(),
		ProductosAfectados: len(reversion.Detalles),
	}, nil
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func mapEvento(e *model.EventoCambioPrecio, conDetalles bool) dto.EventoCambioResponse {
	resp := dto.EventoCambioResponse{
		ID:                 e.ID.String(),
		Usuario:            e.Usuario,
		DescripcionAlcance: e.DescripcionAlcance,
		Porcentaje:         e.Porcentaje,
		Motivo:             e.Motivo,
		CantidadProductos:  e.CantidadProductos,
		EsReversion:        e.EsReversion,
		CreatedAt:          e.CreatedAt.Format(time.RFC3339),
	}
	if e.ListaID != nil {
		s := e.ListaID.String()
		resp.ListaID = &s
	}
	if e.EventoOrigenID != nil {
		s := e.EventoOrigenID.String()
		resp.EventoOrigenID = &s
	}
	if e.RevertidoPor != nil {
		resp.RevertidoPor = e.RevertidoPor
	}
	if e.RevertidoAt != nil {
		t := e.RevertidoAt.Format(time.RFC3339)
		resp.RevertidoAt = &t
	}
	if conDetalles {
		for _, d := range e.Detalles {
			det := dto.DetalleCambioResponse{
				ProductoID:     d.ProductoID.String(),
				PrecioAnterior: d.PrecioAnterior,
				PrecioNuevo:    d.PrecioNuevo,
			}
			if d.Producto != nil {
				det.ProductoNombre = d.Producto.Nombre
			}
			resp.Detalles = append(resp.Detalles, det)
		}
	}
	return resp
}

func (s *cambioDirectoService) ObtenerEvento(ctx context.Context, id uuid.UUID) (*dto.EventoCambioResponse, error) {
	e, err := s.eventoRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, noEncontradoSi(err, "evento")
	}
	resp := mapEvento(e, true)
	return &resp, nil
}

func (s *cambioDirectoService) ListarEventos(ctx context.Context, page, limit int) (*dto.EventoCambioListResponse, error) {
	rows, total, err := s.eventoRepo.Listar(ctx, page, limit)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	data := make([]dto.EventoCambioResponse, 0, len(rows))
	for i := range rows {
		data = append(data, mapEvento(&rows[i], false))
	}
	return &dto.EventoCambioListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *cambioDirectoService) ListarEventosPorProducto(ctx context.Context, productoID uuid.UUID, page, limit int) (*dto.EventoCambioListResponse, error) {
	if _, err := s.productoRepo.ObtenerPorID(ctx, productoID); err != nil {
		return nil, noEncontradoSi(err, "producto")
	}
	rows, total, err := s.eventoRepo.ListarPorProducto(ctx, productoID, page, limit)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	data := make([]dto.EventoCambioResponse, 0, len(rows))
	for i := range rows {
		data = append(data, mapEvento(&rows[i], false))
	}
	return &dto.EventoCambioListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}
