package service

import (
	"context"
	"testing"
	"time"

	"credipos/internal/dto"
	"credipos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entornoLote struct {
	precios     *stubPrecioRepo
	productos   *stubProductoRepo
	listas      *stubListaRepo
	lotes       *stubLoteRepo
	cache       *stubCache
	notificador *stubNotificador
	svc         LoteCambioService

	lista *model.ListaPrecio
	prodA *model.Producto
	prodB *model.Producto
}

// nuevoEntornoLote arma dos productos con tramos vigentes (100 y 200) en una
// lista sin redondeo, y un servicio con umbral de autorización 10%.
func nuevoEntornoLote(t *testing.T, permitirEncadenada bool) *entornoLote {
	t.Helper()
	e := &entornoLote{
		precios:     newStubPrecioRepo(),
		productos:   newStubProductoRepo(),
		listas:      newStubListaRepo(),
		lotes:       newStubLoteRepo(),
		cache:       &stubCache{},
		notificador: &stubNotificador{},
	}

	e.lista = e.listas.agregar(&model.ListaPrecio{
		Codigo: "MOSTRADOR", Nombre: "Mostrador",
		Redondeo: model.RedondeoNinguno, Activa: true, EsPredeterminada: true,
	})
	e.prodA = e.productos.agregar(&model.Producto{
		CodigoBarras: "111", Nombre: "Heladera",
		PrecioCosto: d("70"), PrecioVenta: d("100"), Activo: true,
	})
	e.prodB = e.productos.agregar(&model.Producto{
		CodigoBarras: "222", Nombre: "Lavarropas",
		PrecioCosto: d("150"), PrecioVenta: d("200"), Activo: true,
	})

	inicio := time.Now().Add(-24 * time.Hour)
	for _, par := range []struct {
		p      *model.Producto
		precio decimal.Decimal
	}{{e.prodA, d("100")}, {e.prodB, d("200")}} {
		require.NoError(t, e.precios.AsignarVigenteTx(nil, &model.PrecioProducto{
			ProductoID: par.p.ID, ListaID: e.lista.ID,
			VigenteDesde: inicio, Costo: par.p.PrecioCosto, Precio: par.precio,
			CreadoPor: "seed",
		}))
	}

	e.svc = NewLoteCambioService(
		e.lotes, e.productos, e.precios, e.listas, e.cache, e.notificador,
		d("10"), permitirEncadenada,
	)
	return e
}

func (e *entornoLote) reqSimulacion(magnitud string) dto.SimularLoteRequest {
	return dto.SimularLoteRequest{
		Nombre:    "ajuste estacional",
		Modo:      model.ModoPorcentajePrecio,
		Direccion: model.DireccionAumento,
		Magnitud:  d(magnitud),
		Alcance:   dto.AlcanceCambio{ProductoIDs: []string{e.prodA.ID.String(), e.prodB.ID.String()}},
		ListaIDs:  []string{e.lista.ID.String()},
	}
}

func TestLote_Simular_CalculaItemsSinTocarPrecios(t *testing.T) {
	e := nuevoEntornoLote(t, false)

	resp, err := e.svc.Simular(context.Background(), "ana", e.reqSimulacion("20"))
	require.NoError(t, err)

	assert.Equal(t, model.LoteSimulado, resp.Estado)
	require.Len(t, resp.Items, 2)

	porProducto := map[string]dto.ItemLoteResponse{}
	for _, it := range resp.Items {
		porProducto[it.ProductoID] = it
	}
	itA := porProducto[e.prodA.ID.String()]
	assert.True(t, d("100").Equal(itA.PrecioAnterior))
	assert.True(t, d("120").Equal(itA.PrecioNuevo))
	assert.True(t, d("20").Equal(itA.DeltaPct))

	itB := porProducto[e.prodB.ID.String()]
	assert.True(t, d("240").Equal(itB.PrecioNuevo))

	// La simulación no escribe ningún precio.
	vigente, err := e.precios.ObtenerVigente(context.Background(), e.prodA.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(vigente.Precio))

	// Promedio 20% ≥ umbral 10% → requiere autorización y avisa.
	assert.True(t, resp.RequiereAutorizacion)
	assert.True(t, d("20").Equal(resp.PromedioCambioPct))
	assert.Len(t, e.notificador.avisos, 1)
}

func TestLote_Simular_UmbralInclusive(t *testing.T) {
	e := nuevoEntornoLote(t, false)

	// Exactamente en el umbral: también requiere autorización.
	resp, err := e.svc.Simular(context.Background(), "ana", e.reqSimulacion("10"))
	require.NoError(t, err)
	assert.True(t, resp.RequiereAutorizacion)

	resp, err = e.svc.Simular(context.Background(), "ana", e.reqSimulacion("9.5"))
	require.NoError(t, err)
	assert.False(t, resp.RequiereAutorizacion)
}

func TestLote_Simular_Validaciones(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	req := e.reqSimulacion("0")
	_, err := e.svc.Simular(ctx, "ana", req)
	assert.ErrorIs(t, err, ErrValidacion)

	req = e.reqSimulacion("10")
	req.Alcance = dto.AlcanceCambio{}
	_, err = e.svc.Simular(ctx, "ana", req)
	assert.ErrorIs(t, err, ErrValidacion)

	req = e.reqSimulacion("10")
	req.ListaIDs = []string{uuid.NewString()}
	_, err = e.svc.Simular(ctx, "ana", req)
	assert.ErrorIs(t, err, ErrNoEncontrado)
}

func TestLote_Simular_AdvertenciasInformativas(t *testing.T) {
	e := nuevoEntornoLote(t, false)

	// Bajar 150 en absoluto deja a prodA (100) en negativo y a prodB (200) en
	// 50, por debajo de su costo 150: ambos con advertencia, ninguno bloquea.
	req := e.reqSimulacion("150")
	req.Modo = model.ModoValorAbsoluto
	req.Direccion = model.DireccionDisminucion

	resp, err := e.svc.Simular(context.Background(), "ana", req)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	for _, it := range resp.Items {
		assert.True(t, it.Advertencia, "item %s sin advertencia", it.ProductoID)
	}
}

func TestLote_Simular_BaseDesdeDefaultsDeLista(t *testing.T) {
	e := nuevoEntornoLote(t, false)

	// Producto sin tramo en la lista: la base sale de costo × (1 + margen),
	// redondeada según la regla de la lista.
	conMargen := e.listas.agregar(&model.ListaPrecio{
		Codigo: "CREDITO", Nombre: "Crédito",
		MargenPct: d("40"), Redondeo: model.RedondeoCentena, Activa: true,
	})
	nuevo := e.productos.agregar(&model.Producto{
		CodigoBarras: "333", Nombre: "Microondas",
		PrecioCosto: d("1000"), PrecioVenta: d("1350"), Activo: true,
	})

	req := dto.SimularLoteRequest{
		Nombre: "alta crédito", Modo: model.ModoPorcentajePrecio,
		Direccion: model.DireccionAumento, Magnitud: d("10"),
		Alcance:  dto.AlcanceCambio{ProductoIDs: []string{nuevo.ID.String()}},
		ListaIDs: []string{conMargen.ID.String()},
	}
	resp, err := e.svc.Simular(context.Background(), "ana", req)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	// 1000 × 1.40 = 1400 (ya múltiplo de 100); +10% → 1540.
	assert.True(t, d("1400").Equal(resp.Items[0].PrecioAnterior))
	assert.True(t, d("1540").Equal(resp.Items[0].PrecioNuevo))
}

func TestLote_MaquinaDeEstados(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)

	// Aplicar sin aprobar: estado inválido.
	_, err = e.svc.Aplicar(ctx, loteID, sim.Version, "bruno", nil)
	assert.ErrorIs(t, err, ErrEstadoInvalido)

	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "ok")
	require.NoError(t, err)
	assert.Equal(t, model.LoteAprobado, apr.Estado)
	require.NotNil(t, apr.AprobadoPor)
	assert.Equal(t, "bruno", *apr.AprobadoPor)

	// Segundo aprobador con el token viejo: su lectura quedó desactualizada,
	// aunque el estado actual también delate la carrera.
	_, err = e.svc.Aprobar(ctx, loteID, sim.Version, "carla", "ok")
	assert.ErrorIs(t, err, ErrConflictoConcurrencia)

	apl, err := e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", nil)
	require.NoError(t, err)
	assert.Equal(t, model.LoteAplicado, apl.Estado)

	// Un lote aplicado no se cancela.
	_, err = e.svc.Cancelar(ctx, loteID, apl.Version, "bruno", "me arrepentí")
	assert.ErrorIs(t, err, ErrEstadoInvalido)

	// Precios escritos en la línea temporal, con referencia al lote.
	vigente, err := e.precios.ObtenerVigente(ctx, e.prodA.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("120").Equal(vigente.Precio))
	require.NotNil(t, vigente.LoteID)
	assert.Equal(t, loteID, *vigente.LoteID)
}

func TestLote_TokenVencidoDaConflicto(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)

	// Dos supervisores leyeron el mismo lote con el mismo token; gana el
	// primero y el segundo recibe conflicto de concurrencia, no un error de
	// estado: su lectura completa quedó vieja.
	_, err = e.svc.Rechazar(ctx, loteID, sim.Version, "bruno", "precios desalineados")
	require.NoError(t, err)

	_, err = e.svc.Rechazar(ctx, loteID, sim.Version, "carla", "duplicado")
	assert.ErrorIs(t, err, ErrConflictoConcurrencia)

	// Token ilegible siempre es conflicto.
	_, err = e.svc.Aprobar(ctx, loteID, "garbage!!", "carla", "")
	assert.ErrorIs(t, err, ErrConflictoConcurrencia)
}

func TestLote_AplicarYRevertirConTokenViejoDanConflicto(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)
	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)

	// El lote está aprobado, el estado que Aplicar exige; aun así el token de
	// la simulación quedó viejo y debe chocar.
	_, err = e.svc.Aplicar(ctx, loteID, sim.Version, "bruno", nil)
	assert.ErrorIs(t, err, ErrConflictoConcurrencia)

	apl, err := e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", nil)
	require.NoError(t, err)

	// Ídem para Revertir con el token de la aprobación.
	_, err = e.svc.Revertir(ctx, loteID, apr.Version, "carla", "error")
	assert.ErrorIs(t, err, ErrConflictoConcurrencia)

	_, err = e.svc.Revertir(ctx, loteID, apl.Version, "carla", "error")
	require.NoError(t, err)
}

func TestLote_AplicarOmiteItemsConAdvertencia(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	// -150 absoluto: prodA queda negativo (advertencia), prodB queda en 50
	// con margen negativo (advertencia). Agregamos un tercer producto barato
	// para tener un item limpio.
	barato := e.productos.agregar(&model.Producto{
		CodigoBarras: "444", Nombre: "Pava eléctrica",
		PrecioCosto: d("100"), PrecioVenta: d("400"), Activo: true,
	})
	require.NoError(t, e.precios.AsignarVigenteTx(nil, &model.PrecioProducto{
		ProductoID: barato.ID, ListaID: e.lista.ID,
		VigenteDesde: time.Now().Add(-time.Hour), Costo: d("100"), Precio: d("400"),
		CreadoPor: "seed",
	}))

	req := e.reqSimulacion("150")
	req.Modo = model.ModoValorAbsoluto
	req.Direccion = model.DireccionDisminucion
	req.Alcance.ProductoIDs = append(req.Alcance.ProductoIDs, barato.ID.String())

	sim, err := e.svc.Simular(ctx, "ana", req)
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)

	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)
	apl, err := e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", nil)
	require.NoError(t, err)

	aplicados := 0
	for _, it := range apl.Items {
		if it.Aplicado {
			aplicados++
		}
	}
	assert.Equal(t, 1, aplicados, "solo el item sin advertencia se aplica")

	// prodA conserva su precio original; el barato bajó a 250.
	vigenteA, err := e.precios.ObtenerVigente(ctx, e.prodA.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(vigenteA.Precio))

	vigenteBarato, err := e.precios.ObtenerVigente(ctx, barato.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("250").Equal(vigenteBarato.Precio))
}

func TestLote_AplicarConFechaEfectivaRetrodatadaFalla(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)
	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)

	// Los tramos vigentes empiezan hace 24 h; 48 h atrás es retro-datado.
	pasado := time.Now().Add(-48 * time.Hour)
	_, err = e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", &pasado)
	assert.ErrorIs(t, err, ErrEstadoInvalido)
}

func TestLote_RevertirRestauraYCreaLoteInverso(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)
	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)
	apl, err := e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", nil)
	require.NoError(t, err)

	rev, err := e.svc.Revertir(ctx, loteID, apl.Version, "carla", "error de carga")
	require.NoError(t, err)

	// El lote inverso nace aplicado, con dirección opuesta y referencia al padre.
	assert.Equal(t, model.LoteAplicado, rev.Estado)
	assert.Equal(t, model.DireccionDisminucion, rev.Direccion)
	require.NotNil(t, rev.LotePadreID)
	assert.Equal(t, sim.ID, *rev.LotePadreID)
	require.Len(t, rev.Items, 2)

	// Los precios volvieron a su valor original.
	vigente, err := e.precios.ObtenerVigente(ctx, e.prodA.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(vigente.Precio))

	// El original quedó en revertido, con sus items marcados.
	original, err := e.svc.ObtenerPorID(ctx, loteID)
	require.NoError(t, err)
	assert.Equal(t, model.LoteRevertido, original.Estado)
	for _, it := range original.Items {
		assert.True(t, it.Revertido)
	}

	// Revertir la reversión está vedado por defecto.
	_, err = e.svc.Revertir(ctx, uuid.MustParse(rev.ID), rev.Version, "carla", "ida y vuelta")
	assert.ErrorIs(t, err, ErrEstadoInvalido)
}

func TestLote_ReversionEncadenadaHabilitada(t *testing.T) {
	e := nuevoEntornoLote(t, true)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)
	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)
	apl, err := e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", nil)
	require.NoError(t, err)
	rev, err := e.svc.Revertir(ctx, loteID, apl.Version, "carla", "error")
	require.NoError(t, err)

	// Con la política habilitada, la reversión de la reversión reinstala el
	// precio del primer lote.
	_, err = e.svc.Revertir(ctx, uuid.MustParse(rev.ID), rev.Version, "carla", "era correcto")
	require.NoError(t, err)

	vigente, err := e.precios.ObtenerVigente(ctx, e.prodA.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("120").Equal(vigente.Precio))
}

func TestLote_AplicarYRevertirInvalidanCachePublica(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)
	assert.Empty(t, e.cache.borradas, "simular no toca la cache")

	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)
	apl, err := e.svc.Aplicar(ctx, loteID, apr.Version, "bruno", nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"precio:111", "precio:222"}, e.cache.borradas)

	e.cache.borradas = nil
	_, err = e.svc.Revertir(ctx, loteID, apl.Version, "carla", "error de carga")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"precio:111", "precio:222"}, e.cache.borradas)
}

func TestLote_CancelarDesdeAprobado(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("5"))
	require.NoError(t, err)
	loteID := uuid.MustParse(sim.ID)
	assert.False(t, sim.RequiereAutorizacion)

	apr, err := e.svc.Aprobar(ctx, loteID, sim.Version, "bruno", "")
	require.NoError(t, err)

	can, err := e.svc.Cancelar(ctx, loteID, apr.Version, "bruno", "cambio de planes")
	require.NoError(t, err)
	assert.Equal(t, model.LoteCancelado, can.Estado)

	// Nada se escribió.
	vigente, err := e.precios.ObtenerVigente(ctx, e.prodA.ID, e.lista.ID)
	require.NoError(t, err)
	assert.True(t, d("100").Equal(vigente.Precio))
}

func TestLote_ListarFiltraPorEstado(t *testing.T) {
	e := nuevoEntornoLote(t, false)
	ctx := context.Background()

	sim1, err := e.svc.Simular(ctx, "ana", e.reqSimulacion("20"))
	require.NoError(t, err)
	_, err = e.svc.Simular(ctx, "ana", e.reqSimulacion("30"))
	require.NoError(t, err)
	_, err = e.svc.Rechazar(ctx, uuid.MustParse(sim1.ID), sim1.Version, "bruno", "no")
	require.NoError(t, err)

	lista, err := e.svc.Listar(ctx, dto.LoteFilter{Estado: model.LoteSimulado, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), lista.Total)

	todos, err := e.svc.Listar(ctx, dto.LoteFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), todos.Total)
}
