package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credipos/internal/dto"
	"credipos/internal/model"
	"credipos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notificador avisa a supervisión cuando un lote simulado requiere autorización.
// El envío es best effort: una falla no afecta la simulación.
type Notificador interface {
	NotificarLoteRequiereAutorizacion(nombre string, promedioPct decimal.Decimal, loteID string) error
}

// LoteCambioService gobierna el circuito completo de cambio masivo:
// simular → aprobar/rechazar/cancelar → aplicar → revertir.
// Toda operación mutadora corre en una sola transacción y valida el token de
// concurrencia del lote; una falla a mitad de camino no deja estado parcial.
type LoteCambioService interface {
	Simular(ctx context.Context, actor string, req dto.SimularLoteRequest) (*dto.LoteCambioResponse, error)
	Aprobar(ctx context.Context, loteID uuid.UUID, version, actor, notas string) (*dto.LoteCambioResponse, error)
	Rechazar(ctx context.Context, loteID uuid.UUID, version, actor, motivo string) (*dto.LoteCambioResponse, error)
	Cancelar(ctx context.Context, loteID uuid.UUID, version, actor, motivo string) (*dto.LoteCambioResponse, error)
	Aplicar(ctx context.Context, loteID uuid.UUID, version, actor string, fechaEfectiva *time.Time) (*dto.LoteCambioResponse, error)
	// Revertir crea un lote inverso (directamente aplicado, dirección opuesta,
	// lote_padre_id apuntando al original) y reinstala los precios previos.
	Revertir(ctx context.Context, loteID uuid.UUID, version, actor, motivo string) (*dto.LoteCambioResponse, error)
	ObtenerPorID(ctx context.Context, loteID uuid.UUID) (*dto.LoteCambioResponse, error)
	Listar(ctx context.Context, filter dto.LoteFilter) (*dto.LoteListResponse, error)
}

type loteCambioService struct {
	loteRepo     repository.LoteCambioRepository
	productoRepo repository.ProductoRepository
	precioRepo   repository.PrecioProductoRepository
	listaRepo    repository.ListaPrecioRepository
	cache        CachePrecios
	notificador  Notificador

	// umbralAutorizacion es el promedio de |% de cambio| a partir del cual
	// (inclusive) el lote requiere autorización. Se lee una vez por simulación.
	umbralAutorizacion decimal.Decimal
	// permitirReversionEncadenada habilita revertir lotes que a su vez son
	// reversiones. Apagado por defecto: decisión explícita, no accidente de la
	// máquina de estados.
	permitirReversionEncadenada bool
}

func NewLoteCambioService(
	loteRepo repository.LoteCambioRepository,
	productoRepo repository.ProductoRepository,
	precioRepo repository.PrecioProductoRepository,
	listaRepo repository.ListaPrecioRepository,
	cache CachePrecios,
	notificador Notificador,
	umbralAutorizacion decimal.Decimal,
	permitirReversionEncadenada bool,
) LoteCambioService {
	return &loteCambioService{
		loteRepo:                    loteRepo,
		productoRepo:                productoRepo,
		precioRepo:                  precioRepo,
		listaRepo:                   listaRepo,
		cache:                       cache,
		notificador:                 notificador,
		umbralAutorizacion:          umbralAutorizacion,
		permitirReversionEncadenada: permitirReversionEncadenada,
	}
}

// ── Simular ──────────────────────────────────────────────────────────────────

func (s *loteCambioService) Simular(ctx context.Context, actor string, req dto.SimularLoteRequest) (*dto.LoteCambioResponse, error) {
	if req.Magnitud.IsZero() {
		return nil, fmt.Errorf("la magnitud no puede ser cero: %w", ErrValidacion)
	}
	if req.Alcance.Vacio() {
		return nil, fmt.Errorf("el alcance no selecciona ningún producto: %w", ErrValidacion)
	}

	listas := make([]*model.ListaPrecio, 0, len(req.ListaIDs))
	for _, raw := range req.ListaIDs {
		listaID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("lista_id %q inválido: %w", raw, ErrValidacion)
		}
		lista, err := s.listaRepo.ObtenerPorID(ctx, listaID)
		if err != nil {
			return nil, noEncontradoSi(err, "lista")
		}
		if !lista.Activa {
			return nil, fmt.Errorf("la lista %q está inactiva: %w", lista.Codigo, ErrValidacion)
		}
		listas = append(listas, lista)
	}

	productos, err := s.productoRepo.ResolverAlcance(ctx, req.Alcance)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	if len(productos) == 0 {
		return nil, fmt.Errorf("el alcance no resolvió ningún producto: %w", ErrValidacion)
	}

	// Un item por par (producto, lista), sobre el precio vigente de cada par.
	var items []model.ItemLote
	sumaAbs := decimal.Zero
	for i := range productos {
		p := &productos[i]
		for _, lista := range listas {
			anterior, costo := s.basePar(ctx, p, lista)

			base := anterior
			if req.Modo == model.ModoPorcentajeCosto {
				base = costo
			}
			nuevo := CalcularNuevoPrecio(base, req.Magnitud, req.Modo, req.Direccion).Round(2)

			item := model.ItemLote{
				ProductoID:        p.ID,
				ListaID:           lista.ID,
				PrecioAnterior:    anterior,
				PrecioNuevo:       nuevo,
				DeltaValor:        nuevo.Sub(anterior),
				DeltaPct:          CalcularDeltaPct(anterior, nuevo).Round(2),
				Costo:             costo,
				MargenAnteriorPct: CalcularMargen(anterior, costo).Round(2),
				MargenNuevoPct:    CalcularMargen(nuevo, costo).Round(2),
			}

			// Las advertencias son informativas: no bloquean la simulación, pero
			// el item queda excluido al aplicar.
			switch {
			case !nuevo.IsPositive():
				item.Advertencia = true
				item.MensajeAdvertencia = "el precio resultante no es positivo"
			case item.MargenNuevoPct.IsNegative():
				item.Advertencia = true
				item.MensajeAdvertencia = "el margen resultante es negativo"
			}

			sumaAbs = sumaAbs.Add(item.DeltaPct.Abs())
			items = append(items, item)
		}
	}

	promedio := decimal.Zero
	if len(items) > 0 {
		promedio = sumaAbs.Div(decimal.NewFromInt(int64(len(items)))).Round(2)
	}

	alcanceJSON, err := json.Marshal(req.Alcance)
	if err != nil {
		return nil, fmt.Errorf("serializando alcance: %w", err)
	}
	listasJSON, err := json.Marshal(req.ListaIDs)
	if err != nil {
		return nil, fmt.Errorf("serializando listas: %w", err)
	}

	lote := &model.LoteCambio{
		Nombre:        req.Nombre,
		Modo:          req.Modo,
		Direccion:     req.Direccion,
		Magnitud:      req.Magnitud,
		Alcance:       string(alcanceJSON),
		ListaIDs:      string(listasJSON),
		Estado:        model.LoteSimulado,
		SolicitadoPor: actor,
		SolicitadoAt:  time.Now(),
		// Umbral inclusive: un promedio exactamente igual también requiere
		// autorización.
		RequiereAutorizacion: promedio.GreaterThanOrEqual(s.umbralAutorizacion),
		PromedioCambioPct:    promedio,
		Version:              uuid.New(),
		Items:                items,
	}

	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		return s.loteRepo.CrearTx(tx, lote)
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}

	if lote.RequiereAutorizacion && s.notificador != nil {
		if err := s.notificador.NotificarLoteRequiereAutorizacion(lote.Nombre, promedio, lote.ID.String()); err != nil {
			log.Warn().Err(err).Str("lote_id", lote.ID.String()).Msg("no se pudo notificar autorización requerida")
		}
	}

	return s.mapLote(lote, true), nil
}

// basePar devuelve el precio base y el costo de un par (producto, lista).
// Sin tramo vigente, el precio base sale de los defaults de la lista sobre el
// costo del producto (margen + recargo, redondeado según la regla de la lista);
// si la lista no define margen, cae al precio plano del producto.
func (s *loteCambioService) basePar(ctx context.Context, p *model.Producto, lista *model.ListaPrecio) (precio, costo decimal.Decimal) {
	costo = p.PrecioCosto
	if vigente, err := s.precioRepo.ObtenerVigente(ctx, p.ID, lista.ID); err == nil {
		return vigente.Precio, vigente.Costo
	}
	if lista.MargenPct.IsPositive() || lista.RecargoPct.IsPositive() {
		factor := decimal.NewFromInt(1).
			Add(lista.MargenPct.Div(cien)).
			Add(lista.RecargoPct.Div(cien))
		return AplicarRedondeo(p.PrecioCosto.Mul(factor), lista.Redondeo), costo
	}
	return p.PrecioVenta, costo
}

// ── Transiciones administrativas ─────────────────────────────────────────────

// transicionar valida estado y token, muta el lote con fn y lo guarda con
// chequeo optimista. El UPDATE condicionado por versión es el que resuelve la
// carrera entre dos operadores con el mismo token leído: el segundo no afecta
// filas y recibe conflicto.
func (s *loteCambioService) transicionar(
	ctx context.Context,
	loteID uuid.UUID,
	version string,
	estadosPermitidos []string,
	fn func(lote *model.LoteCambio),
) (*model.LoteCambio, error) {
	versionLeida, err := decodificarVersion(version)
	if err != nil {
		return nil, err
	}

	lote, err := s.loteRepo.ObtenerPorID(ctx, loteID)
	if err != nil {
		return nil, noEncontradoSi(err, "lote")
	}

	// El token se chequea antes que el estado: un token vencido significa que
	// la lectura del operador quedó vieja, aunque el estado actual ya no admita
	// la transición. Solo un token fresco con estado incompatible es un error
	// de estado.
	if lote.Version != versionLeida {
		return nil, ErrConflictoConcurrencia
	}
	permitido := false
	for _, e := range estadosPermitidos {
		if lote.Estado == e {
			permitido = true
			break
		}
	}
	if !permitido {
		return nil, fmt.Errorf("el lote está en estado %q: %w", lote.Estado, ErrEstadoInvalido)
	}

	fn(lote)

	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		ok, err := s.loteRepo.ActualizarConVersionTx(tx, lote, versionLeida)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflictoConcurrencia
		}
		return nil
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}
	return lote, nil
}

func (s *loteCambioService) Aprobar(ctx context.Context, loteID uuid.UUID, version, actor, notas string) (*dto.LoteCambioResponse, error) {
	ahora := time.Now()
	lote, err := s.transicionar(ctx, loteID, version, []string{model.LoteSimulado}, func(l *model.LoteCambio) {
		l.Estado = model.LoteAprobado
		l.AprobadoPor = &actor
		l.AprobadoAt = &ahora
		l.Notas = notas
	})
	if err != nil {
		return nil, err
	}
	return s.mapLote(lote, false), nil
}

func (s *loteCambioService) Rechazar(ctx context.Context, loteID uuid.UUID, version, actor, motivo string) (*dto.LoteCambioResponse, error) {
	ahora := time.Now()
	lote, err := s.transicionar(ctx, loteID, version, []string{model.LoteSimulado}, func(l *model.LoteCambio) {
		l.Estado = model.LoteRechazado
		l.AprobadoPor = &actor
		l.AprobadoAt = &ahora
		l.Notas = motivo
	})
	if err != nil {
		return nil, err
	}
	return s.mapLote(lote, false), nil
}

// Cancelar admite lotes simulados o aprobados. Un lote aplicado no se cancela:
// se revierte.
func (s *loteCambioService) Cancelar(ctx context.Context, loteID uuid.UUID, version, actor, motivo string) (*dto.LoteCambioResponse, error) {
	lote, err := s.transicionar(ctx, loteID, version, []string{model.LoteSimulado, model.LoteAprobado}, func(l *model.LoteCambio) {
		l.Estado = model.LoteCancelado
		l.Notas = motivo
	})
	if err != nil {
		return nil, err
	}
	return s.mapLote(lote, false), nil
}

// ── Aplicar ──────────────────────────────────────────────────────────────────

func (s *loteCambioService) Aplicar(ctx context.Context, loteID uuid.UUID, version, actor string, fechaEfectiva *time.Time) (*dto.LoteCambioResponse, error) {
	versionLeida, err := decodificarVersion(version)
	if err != nil {
		return nil, err
	}

	lote, err := s.loteRepo.ObtenerPorID(ctx, loteID)
	if err != nil {
		return nil, noEncontradoSi(err, "lote")
	}
	if lote.Version != versionLeida {
		return nil, ErrConflictoConcurrencia
	}
	if lote.Estado != model.LoteAprobado {
		return nil, fmt.Errorf("el lote está en estado %q, debe estar aprobado: %w", lote.Estado, ErrEstadoInvalido)
	}

	// Un precio negativo entre los items sin advertencia aborta la aplicación
	// completa antes de escribir nada.
	for i := range lote.Items {
		item := &lote.Items[i]
		if !item.Advertencia && item.PrecioNuevo.IsNegative() {
			return nil, fmt.Errorf("item con precio negativo (producto %s): %w", item.ProductoID, ErrValidacion)
		}
	}

	efectiva := time.Now()
	if fechaEfectiva != nil {
		efectiva = *fechaEfectiva
	}

	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		for i := range lote.Items {
			item := &lote.Items[i]
			if item.Advertencia {
				continue
			}

			loteRef := lote.ID
			nuevo := &model.PrecioProducto{
				ProductoID:   item.ProductoID,
				ListaID:      item.ListaID,
				VigenteDesde: efectiva,
				Costo:        item.Costo,
				Precio:       item.PrecioNuevo,
				MargenValor:  item.PrecioNuevo.Sub(item.Costo),
				MargenPct:    item.MargenNuevoPct,
				LoteID:       &loteRef,
				CreadoPor:    actor,
				Nota:         lote.Nombre,
			}
			if err := s.precioRepo.AsignarVigenteTx(tx, nuevo); err != nil {
				if errors.Is(err, repository.ErrRetrodatado) {
					return fmt.Errorf("%v: %w", err, ErrEstadoInvalido)
				}
				return err
			}
			if err := s.loteRepo.MarcarItemTx(tx, item.ID, true, false); err != nil {
				return err
			}
			item.Aplicado = true
		}

		lote.Estado = model.LoteAplicado
		lote.AplicadoPor = &actor
		lote.AplicadoAt = &efectiva
		ok, err := s.loteRepo.ActualizarConVersionTx(tx, lote, versionLeida)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflictoConcurrencia
		}
		return nil
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}
	s.invalidarCacheItems(ctx, lote.Items)
	return s.mapLote(lote, true), nil
}

// invalidarCacheItems borra de la cache pública los productos cuyos items
// quedaron aplicados. Best effort, después del commit.
func (s *loteCambioService) invalidarCacheItems(ctx context.Context, items []model.ItemLote) {
	vistos := make(map[uuid.UUID]bool, len(items))
	for i := range items {
		item := &items[i]
		if !item.Aplicado || vistos[item.ProductoID] {
			continue
		}
		vistos[item.ProductoID] = true
		codigo := ""
		if item.Producto != nil {
			codigo = item.Producto.CodigoBarras
		} else if p, err := s.productoRepo.ObtenerPorID(ctx, item.ProductoID); err == nil {
			codigo = p.CodigoBarras
		}
		invalidarCachePrecio(ctx, s.cache, codigo)
	}
}

// ── Revertir ─────────────────────────────────────────────────────────────────

func (s *loteCambioService) Revertir(ctx context.Context, loteID uuid.UUID, version, actor, motivo string) (*dto.LoteCambioResponse, error) {
	versionLeida, err := decodificarVersion(version)
	if err != nil {
		return nil, err
	}

	lote, err := s.loteRepo.ObtenerPorID(ctx, loteID)
	if err != nil {
		return nil, noEncontradoSi(err, "lote")
	}
	if lote.Version != versionLeida {
		return nil, ErrConflictoConcurrencia
	}
	if lote.Estado != model.LoteAplicado {
		return nil, fmt.Errorf("el lote está en estado %q, solo un lote aplicado puede revertirse: %w", lote.Estado, ErrEstadoInvalido)
	}
	if lote.LotePadreID != nil && !s.permitirReversionEncadenada {
		return nil, fmt.Errorf("el lote ya es una reversión: %w", ErrEstadoInvalido)
	}

	ahora := time.Now()
	padreID := lote.ID
	reversion := &model.LoteCambio{
		Nombre:          "reversión de: " + lote.Nombre,
		Modo:            lote.Modo,
		Direccion:       direccionOpuesta(lote.Direccion),
		Magnitud:        lote.Magnitud,
		Alcance:         lote.Alcance,
		ListaIDs:        lote.ListaIDs,
		Estado:          model.LoteAplicado,
		SolicitadoPor:   actor,
		SolicitadoAt:    ahora,
		AplicadoPor:     &actor,
		AplicadoAt:      &ahora,
		MotivoReversion: motivo,
		LotePadreID:     &padreID,
		Version:         uuid.New(),
	}

	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		for i := range lote.Items {
			item := &lote.Items[i]
			if !item.Aplicado {
				continue
			}

			reversion.Items = append(reversion.Items, model.ItemLote{
				ProductoID:        item.ProductoID,
				ListaID:           item.ListaID,
				PrecioAnterior:    item.PrecioNuevo,
				PrecioNuevo:       item.PrecioAnterior,
				DeltaValor:        item.DeltaValor.Neg(),
				DeltaPct:          CalcularDeltaPct(item.PrecioNuevo, item.PrecioAnterior).Round(2),
				Costo:             item.Costo,
				MargenAnteriorPct: item.MargenNuevoPct,
				MargenNuevoPct:    item.MargenAnteriorPct,
				Aplicado:          true,
			})
		}
		if len(reversion.Items) == 0 {
			return fmt.Errorf("el lote no tiene items aplicados: %w", ErrYaProcesado)
		}
		if err := s.loteRepo.CrearTx(tx, reversion); err != nil {
			return err
		}

		for i := range reversion.Items {
			item := &reversion.Items[i]
			loteRef := reversion.ID
			nuevo := &model.PrecioProducto{
				ProductoID:   item.ProductoID,
				ListaID:      item.ListaID,
				VigenteDesde: ahora,
				Costo:        item.Costo,
				Precio:       item.PrecioNuevo,
				MargenValor:  item.PrecioNuevo.Sub(item.Costo),
				MargenPct:    item.MargenNuevoPct,
				LoteID:       &loteRef,
				CreadoPor:    actor,
				Nota:         motivo,
			}
			if err := s.precioRepo.AsignarVigenteTx(tx, nuevo); err != nil {
				return err
			}
		}

		for i := range lote.Items {
			item := &lote.Items[i]
			if !item.Aplicado {
				continue
			}
			if err := s.loteRepo.MarcarItemTx(tx, item.ID, true, true); err != nil {
				return err
			}
			item.Revertido = true
		}

		lote.Estado = model.LoteRevertido
		lote.RevertidoPor = &actor
		lote.RevertidoAt = &ahora
		lote.MotivoReversion = motivo
		ok, err := s.loteRepo.ActualizarConVersionTx(tx, lote, versionLeida)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflictoConcurrencia
		}
		return nil
	})
	if txErr != nil {
		return nil, clasificarTxError(txErr)
	}
	s.invalidarCacheItems(ctx, lote.Items)
	return s.mapLote(reversion, true), nil
}

func direccionOpuesta(d string) string {
	if d == model.DireccionAumento {
		return model.DireccionDisminucion
	}
	return model.DireccionAumento
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func (s *loteCambioService) ObtenerPorID(ctx context.Context, loteID uuid.UUID) (*dto.LoteCambioResponse, error) {
	lote, err := s.loteRepo.ObtenerPorID(ctx, loteID)
	if err != nil {
		return nil, noEncontradoSi(err, "lote")
	}
	return s.mapLote(lote, true), nil
}

func (s *loteCambioService) Listar(ctx context.Context, filter dto.LoteFilter) (*dto.LoteListResponse, error) {
	lotes, total, err := s.loteRepo.Listar(ctx, filter)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	data := make([]dto.LoteCambioResponse, 0, len(lotes))
	for i := range lotes {
		data = append(data, *s.mapLote(&lotes[i], false))
	}
	return &dto.LoteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func fmtTiempo(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func (s *loteCambioService) mapLote(l *model.LoteCambio, conItems bool) *dto.LoteCambioResponse {
	var alcance dto.AlcanceCambio
	_ = json.Unmarshal([]byte(l.Alcance), &alcance)
	var listaIDs []string
	_ = json.Unmarshal([]byte(l.ListaIDs), &listaIDs)

	resp := &dto.LoteCambioResponse{
		ID:                   l.ID.String(),
		Nombre:               l.Nombre,
		Modo:                 l.Modo,
		Direccion:            l.Direccion,
		Magnitud:             l.Magnitud,
		Alcance:              alcance,
		ListaIDs:             listaIDs,
		Estado:               l.Estado,
		SolicitadoPor:        l.SolicitadoPor,
		SolicitadoAt:         l.SolicitadoAt.Format(time.RFC3339),
		AprobadoPor:          l.AprobadoPor,
		AprobadoAt:           fmtTiempo(l.AprobadoAt),
		AplicadoPor:          l.AplicadoPor,
		AplicadoAt:           fmtTiempo(l.AplicadoAt),
		RevertidoPor:         l.RevertidoPor,
		RevertidoAt:          fmtTiempo(l.RevertidoAt),
		MotivoReversion:      l.MotivoReversion,
		Notas:                l.Notas,
		RequiereAutorizacion: l.RequiereAutorizacion,
		PromedioCambioPct:    l.PromedioCambioPct,
		Version:              codificarVersion(l.Version),
		CantidadItems:        len(l.Items),
	}
	if l.LotePadreID != nil {
		p := l.LotePadreID.String()
		resp.LotePadreID = &p
	}
	if conItems {
		for i := range l.Items {
			item := &l.Items[i]
			ir := dto.ItemLoteResponse{
				ID:                 item.ID.String(),
				ProductoID:         item.ProductoID.String(),
				ListaID:            item.ListaID.String(),
				PrecioAnterior:     item.PrecioAnterior,
				PrecioNuevo:        item.PrecioNuevo,
				DeltaValor:         item.DeltaValor,
				DeltaPct:           item.DeltaPct,
				Costo:              item.Costo,
				MargenAnteriorPct:  item.MargenAnteriorPct,
				MargenNuevoPct:     item.MargenNuevoPct,
				Advertencia:        item.Advertencia,
				MensajeAdvertencia: item.MensajeAdvertencia,
				Aplicado:           item.Aplicado,
				Revertido:          item.Revertido,
			}
			if item.Producto != nil {
				ir.ProductoNombre = item.Producto.Nombre
			}
			resp.Items = append(resp.Items, ir)
		}
	}
	return resp
}
