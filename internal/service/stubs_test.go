package service

import (
	"context"
	"sort"
	"time"

	"credipos/internal/dto"
	"credipos/internal/model"
	"credipos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type parKey struct{ productoID, listaID uuid.UUID }

// stubPrecioRepo mantiene la línea temporal de cada par en memoria.
type stubPrecioRepo struct {
	lineas map[parKey][]*model.PrecioProducto
}

func newStubPrecioRepo() *stubPrecioRepo {
	return &stubPrecioRepo{lineas: make(map[parKey][]*model.PrecioProducto)}
}

func (r *stubPrecioRepo) vigente(k parKey) *model.PrecioProducto {
	for _, p := range r.lineas[k] {
		if p.Vigente {
			return p
		}
	}
	return nil
}

func (r *stubPrecioRepo) ObtenerVigente(_ context.Context, productoID, listaID uuid.UUID) (*model.PrecioProducto, error) {
	if p := r.vigente(parKey{productoID, listaID}); p != nil {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPrecioRepo) ObtenerVigenteEn(_ context.Context, productoID, listaID uuid.UUID, momento time.Time) (*model.PrecioProducto, error) {
	for _, p := range r.lineas[parKey{productoID, listaID}] {
		if !p.VigenteDesde.After(momento) && (p.VigenteHasta == nil || p.VigenteHasta.After(momento)) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPrecioRepo) VigentesPorProducto(_ context.Context, productoID uuid.UUID) ([]model.PrecioProducto, error) {
	var out []model.PrecioProducto
	for k, linea := range r.lineas {
		if k.productoID != productoID {
			continue
		}
		for _, p := range linea {
			if p.Vigente {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (r *stubPrecioRepo) Historial(_ context.Context, productoID, listaID uuid.UUID, page, limit int) ([]model.PrecioProducto, int64, error) {
	linea := r.lineas[parKey{productoID, listaID}]
	out := make([]model.PrecioProducto, 0, len(linea))
	for _, p := range linea {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VigenteDesde.After(out[j].VigenteDesde) })
	return out, int64(len(out)), nil
}

func (r *stubPrecioRepo) AsignarVigenteTx(_ *gorm.DB, nuevo *model.PrecioProducto) error {
	k := parKey{nuevo.ProductoID, nuevo.ListaID}
	if abierto := r.vigente(k); abierto != nil {
		if nuevo.VigenteDesde.Before(abierto.VigenteDesde) {
			return repository.ErrRetrodatado
		}
		hasta := nuevo.VigenteDesde
		abierto.VigenteHasta = &hasta
		abierto.Vigente = false
	}
	if nuevo.ID == uuid.Nil {
		nuevo.ID = uuid.New()
	}
	nuevo.Vigente = true
	nuevo.VigenteHasta = nil
	r.lineas[k] = append(r.lineas[k], nuevo)
	return nil
}

func (r *stubPrecioRepo) DB() *gorm.DB { return nil }

var _ repository.PrecioProductoRepository = (*stubPrecioRepo)(nil)

// stubListaRepo es un ListaPrecioRepository en memoria.
type stubListaRepo struct {
	listas map[uuid.UUID]*model.ListaPrecio
}

func newStubListaRepo() *stubListaRepo {
	return &stubListaRepo{listas: make(map[uuid.UUID]*model.ListaPrecio)}
}

func (r *stubListaRepo) agregar(l *model.ListaPrecio) *model.ListaPrecio {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Version == uuid.Nil {
		l.Version = uuid.New()
	}
	r.listas[l.ID] = l
	return l
}

func (r *stubListaRepo) Crear(_ context.Context, l *model.ListaPrecio) error {
	r.agregar(l)
	return nil
}

func (r *stubListaRepo) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.ListaPrecio, error) {
	l, ok := r.listas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *l
	return &copia, nil
}

func (r *stubListaRepo) ObtenerPorCodigo(_ context.Context, codigo string) (*model.ListaPrecio, error) {
	for _, l := range r.listas {
		if l.Codigo == codigo {
			copia := *l
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubListaRepo) ObtenerPredeterminada(_ context.Context) (*model.ListaPrecio, error) {
	for _, l := range r.listas {
		if l.EsPredeterminada && l.Activa {
			copia := *l
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubListaRepo) Listar(_ context.Context, incluirInactivas bool) ([]model.ListaPrecio, error) {
	var out []model.ListaPrecio
	for _, l := range r.listas {
		if l.Activa || incluirInactivas {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Orden < out[j].Orden })
	return out, nil
}

func (r *stubListaRepo) ActualizarConVersionTx(_ *gorm.DB, l *model.ListaPrecio, versionLeida uuid.UUID) (bool, error) {
	almacenada, ok := r.listas[l.ID]
	if !ok || almacenada.Version != versionLeida {
		return false, nil
	}
	l.Version = uuid.New()
	copia := *l
	r.listas[l.ID] = &copia
	return true, nil
}

func (r *stubListaRepo) LimpiarPredeterminadaTx(_ *gorm.DB, exceptoID uuid.UUID) error {
	for _, l := range r.listas {
		if l.ID != exceptoID {
			l.EsPredeterminada = false
		}
	}
	return nil
}

func (r *stubListaRepo) DB() *gorm.DB { return nil }

var _ repository.ListaPrecioRepository = (*stubListaRepo)(nil)

// stubProductoRepo es un ProductoRepository en memoria.
type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) agregar(p *model.Producto) *model.Producto {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return p
}

func (r *stubProductoRepo) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) ObtenerPorBarcode(_ context.Context, codigo string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.CodigoBarras == codigo && p.Activo {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) ResolverAlcance(_ context.Context, alcance dto.AlcanceCambio) ([]model.Producto, error) {
	var out []model.Producto
	if alcance.Explicito() {
		ids := make(map[string]bool, len(alcance.ProductoIDs))
		for _, id := range alcance.ProductoIDs {
			ids[id] = true
		}
		for _, p := range r.productos {
			if ids[p.ID.String()] {
				out = append(out, *p)
			}
		}
		return out, nil
	}
	cats := make(map[string]bool, len(alcance.CategoriaIDs))
	for _, id := range alcance.CategoriaIDs {
		cats[id] = true
	}
	for _, p := range r.productos {
		if alcance.SoloActivos && !p.Activo {
			continue
		}
		if len(cats) > 0 && (p.CategoriaID == nil || !cats[p.CategoriaID.String()]) {
			continue
		}
		if alcance.SoloBajoStock && p.StockActual > p.StockMinimo {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubProductoRepo) ActualizarPrecioVentaTx(_ *gorm.DB, id uuid.UUID, precio, margen decimal.Decimal) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PrecioVenta = precio
	p.MargenPct = margen
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// stubLoteRepo es un LoteCambioRepository en memoria.
type stubLoteRepo struct {
	lotes map[uuid.UUID]*model.LoteCambio
	orden []uuid.UUID
}

func newStubLoteRepo() *stubLoteRepo {
	return &stubLoteRepo{lotes: make(map[uuid.UUID]*model.LoteCambio)}
}

func (r *stubLoteRepo) CrearTx(_ *gorm.DB, lote *model.LoteCambio) error {
	if lote.ID == uuid.Nil {
		lote.ID = uuid.New()
	}
	for i := range lote.Items {
		if lote.Items[i].ID == uuid.Nil {
			lote.Items[i].ID = uuid.New()
		}
		lote.Items[i].LoteID = lote.ID
	}
	r.lotes[lote.ID] = lote
	r.orden = append(r.orden, lote.ID)
	return nil
}

func (r *stubLoteRepo) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.LoteCambio, error) {
	l, ok := r.lotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *l
	copia.Items = append([]model.ItemLote(nil), l.Items...)
	return &copia, nil
}

func (r *stubLoteRepo) Listar(_ context.Context, filter dto.LoteFilter) ([]model.LoteCambio, int64, error) {
	var out []model.LoteCambio
	for _, id := range r.orden {
		l := r.lotes[id]
		if filter.Estado != "" && l.Estado != filter.Estado {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *stubLoteRepo) ActualizarConVersionTx(_ *gorm.DB, lote *model.LoteCambio, versionLeida uuid.UUID) (bool, error) {
	almacenado, ok := r.lotes[lote.ID]
	if !ok || almacenado.Version != versionLeida {
		return false, nil
	}
	lote.Version = uuid.New()
	copia := *lote
	copia.Items = almacenado.Items
	r.lotes[lote.ID] = &copia
	return true, nil
}

func (r *stubLoteRepo) MarcarItemTx(_ *gorm.DB, itemID uuid.UUID, aplicado, revertido bool) error {
	for _, l := range r.lotes {
		for i := range l.Items {
			if l.Items[i].ID == itemID {
				l.Items[i].Aplicado = aplicado
				l.Items[i].Revertido = revertido
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubLoteRepo) DB() *gorm.DB { return nil }

var _ repository.LoteCambioRepository = (*stubLoteRepo)(nil)

// stubEventoRepo es un EventoCambioRepository en memoria.
type stubEventoRepo struct {
	eventos map[uuid.UUID]*model.EventoCambioPrecio
	orden   []uuid.UUID
}

func newStubEventoRepo() *stubEventoRepo {
	return &stubEventoRepo{eventos: make(map[uuid.UUID]*model.EventoCambioPrecio)}
}

func (r *stubEventoRepo) CrearTx(_ *gorm.DB, e *model.EventoCambioPrecio) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	for i := range e.Detalles {
		if e.Detalles[i].ID == uuid.Nil {
			e.Detalles[i].ID = uuid.New()
		}
		e.Detalles[i].EventoID = e.ID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.eventos[e.ID] = e
	r.orden = append(r.orden, e.ID)
	return nil
}

func (r *stubEventoRepo) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.EventoCambioPrecio, error) {
	e, ok := r.eventos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubEventoRepo) Listar(_ context.Context, page, limit int) ([]model.EventoCambioPrecio, int64, error) {
	var out []model.EventoCambioPrecio
	for i := len(r.orden) - 1; i >= 0; i-- {
		out = append(out, *r.eventos[r.orden[i]])
	}
	return out, int64(len(out)), nil
}

func (r *stubEventoRepo) ListarPorProducto(_ context.Context, productoID uuid.UUID, page, limit int) ([]model.EventoCambioPrecio, int64, error) {
	var out []model.EventoCambioPrecio
	for i := len(r.orden) - 1; i >= 0; i-- {
		e := r.eventos[r.orden[i]]
		for _, d := range e.Detalles {
			if d.ProductoID == productoID {
				out = append(out, *e)
				break
			}
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubEventoRepo) MarcarRevertidoTx(_ *gorm.DB, id uuid.UUID, por string, en time.Time) error {
	e, ok := r.eventos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.RevertidoPor = &por
	e.RevertidoAt = &en
	return nil
}

func (r *stubEventoRepo) DB() *gorm.DB { return nil }

var _ repository.EventoCambioRepository = (*stubEventoRepo)(nil)

// stubNotificador registra las notificaciones enviadas.
type stubNotificador struct {
	avisos []string
}

func (n *stubNotificador) NotificarLoteRequiereAutorizacion(nombre string, _ decimal.Decimal, _ string) error {
	n.avisos = append(n.avisos, nombre)
	return nil
}

var _ Notificador = (*stubNotificador)(nil)

// stubCache registra las claves borradas de la cache pública de precios.
type stubCache struct {
	borradas []string
}

func (c *stubCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.borradas = append(c.borradas, keys...)
	return redis.NewIntCmd(ctx)
}

var _ CachePrecios = (*stubCache)(nil)
