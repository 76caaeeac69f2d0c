package service

import (
	"context"
	"testing"

	"credipos/internal/dto"
	"credipos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLista_CrearConDefaults(t *testing.T) {
	repo := newStubListaRepo()
	svc := NewListaPrecioService(repo)
	ctx := context.Background()

	resp, err := svc.Crear(ctx, dto.CrearListaPrecioRequest{
		Codigo: "MOSTRADOR", Nombre: "Mostrador",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RedondeoCentena, resp.Redondeo)
	assert.True(t, resp.Activa)
	assert.NotEmpty(t, resp.Version)

	// Código duplicado.
	_, err = svc.Crear(ctx, dto.CrearListaPrecioRequest{Codigo: "MOSTRADOR", Nombre: "Otra"})
	assert.ErrorIs(t, err, ErrValidacion)
}

func TestLista_ActualizarConTokenVencido(t *testing.T) {
	repo := newStubListaRepo()
	svc := NewListaPrecioService(repo)
	ctx := context.Background()

	creada, err := svc.Crear(ctx, dto.CrearListaPrecioRequest{Codigo: "CREDITO", Nombre: "Crédito"})
	require.NoError(t, err)
	id := uuid.MustParse(creada.ID)

	nombre := "Crédito personal"
	actualizada, err := svc.Actualizar(ctx, id, dto.ActualizarListaPrecioRequest{
		Version: creada.Version, Nombre: &nombre,
	})
	require.NoError(t, err)
	assert.Equal(t, "Crédito personal", actualizada.Nombre)
	assert.NotEqual(t, creada.Version, actualizada.Version, "cada escritura regenera el token")

	// Reusar el token viejo es conflicto.
	otro := "Crédito prendario"
	_, err = svc.Actualizar(ctx, id, dto.ActualizarListaPrecioRequest{
		Version: creada.Version, Nombre: &otro,
	})
	assert.ErrorIs(t, err, ErrConflictoConcurrencia)
}

func TestLista_PredeterminadaUnica(t *testing.T) {
	repo := newStubListaRepo()
	svc := NewListaPrecioService(repo)
	ctx := context.Background()

	a, err := svc.Crear(ctx, dto.CrearListaPrecioRequest{Codigo: "A", Nombre: "Lista A"})
	require.NoError(t, err)
	b, err := svc.Crear(ctx, dto.CrearListaPrecioRequest{Codigo: "B", Nombre: "Lista B"})
	require.NoError(t, err)

	_, err = svc.EstablecerPredeterminada(ctx, uuid.MustParse(a.ID), a.Version)
	require.NoError(t, err)
	_, err = svc.EstablecerPredeterminada(ctx, uuid.MustParse(b.ID), b.Version)
	require.NoError(t, err)

	listas, err := svc.Listar(ctx, false)
	require.NoError(t, err)
	predeterminadas := 0
	for _, l := range listas {
		if l.EsPredeterminada {
			predeterminadas++
			assert.Equal(t, "B", l.Codigo)
		}
	}
	assert.Equal(t, 1, predeterminadas)
}

func TestLista_DesactivarPredeterminadaFalla(t *testing.T) {
	repo := newStubListaRepo()
	svc := NewListaPrecioService(repo)
	ctx := context.Background()

	a, err := svc.Crear(ctx, dto.CrearListaPrecioRequest{Codigo: "A", Nombre: "Lista A"})
	require.NoError(t, err)
	pred, err := svc.EstablecerPredeterminada(ctx, uuid.MustParse(a.ID), a.Version)
	require.NoError(t, err)

	err = svc.Desactivar(ctx, uuid.MustParse(a.ID), pred.Version)
	assert.ErrorIs(t, err, ErrValidacion)

	// Una lista común sí se desactiva, y desaparece del listado por defecto.
	b, err := svc.Crear(ctx, dto.CrearListaPrecioRequest{Codigo: "B", Nombre: "Lista B"})
	require.NoError(t, err)
	require.NoError(t, svc.Desactivar(ctx, uuid.MustParse(b.ID), b.Version))

	activas, err := svc.Listar(ctx, false)
	require.NoError(t, err)
	assert.Len(t, activas, 1)

	todas, err := svc.Listar(ctx, true)
	require.NoError(t, err)
	assert.Len(t, todas, 2)
}
