package service

import (
	"context"
	"errors"
	"fmt"

	"credipos/internal/dto"
	"credipos/internal/model"
	"credipos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListaPrecioService administra el registro de listas de precios.
type ListaPrecioService interface {
	Crear(ctx context.Context, req dto.CrearListaPrecioRequest) (*dto.ListaPrecioResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ListaPrecioResponse, error)
	Listar(ctx context.Context, incluirInactivas bool) ([]dto.ListaPrecioResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarListaPrecioRequest) (*dto.ListaPrecioResponse, error)
	// EstablecerPredeterminada mueve el flag de predeterminada a la lista dada.
	// Nunca hay dos listas predeterminadas observables, ni siquiera en tránsito:
	// limpiar y asignar ocurren en la misma transacción.
	EstablecerPredeterminada(ctx context.Context, id uuid.UUID, version string) (*dto.ListaPrecioResponse, error)
	// Desactivar es baja lógica. La lista predeterminada no puede desactivarse:
	// primero hay que reasignar la predeterminada.
	Desactivar(ctx context.Context, id uuid.UUID, version string) error
}

type listaPrecioService struct {
	repo repository.ListaPrecioRepository
}

func NewListaPrecioService(repo repository.ListaPrecioRepository) ListaPrecioService {
	return &listaPrecioService{repo: repo}
}

func mapLista(l *model.ListaPrecio) *dto.ListaPrecioResponse {
	return &dto.ListaPrecioResponse{
		ID:               l.ID.String(),
		Codigo:           l.Codigo,
		Nombre:           l.Nombre,
		Tipo:             l.Tipo,
		MargenPct:        l.MargenPct,
		RecargoPct:       l.RecargoPct,
		Redondeo:         l.Redondeo,
		Activa:           l.Activa,
		EsPredeterminada: l.EsPredeterminada,
		Orden:            l.Orden,
		Version:          codificarVersion(l.Version),
	}
}

func (s *listaPrecioService) Crear(ctx context.Context, req dto.CrearListaPrecioRequest) (*dto.ListaPrecioResponse, error) {
	existente, err := s.repo.ObtenerPorCodigo(ctx, req.Codigo)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, clasificarTxError(err)
	}
	if existente != nil {
		return nil, fmt.Errorf("ya existe una lista con código %q: %w", req.Codigo, ErrValidacion)
	}

	tipo := req.Tipo
	if tipo == "" {
		tipo = "venta"
	}
	redondeo := req.Redondeo
	if redondeo == "" {
		redondeo = model.RedondeoCentena
	}

	l := &model.ListaPrecio{
		Codigo:     req.Codigo,
		Nombre:     req.Nombre,
		Tipo:       tipo,
		MargenPct:  req.MargenPct,
		RecargoPct: req.RecargoPct,
		Redondeo:   redondeo,
		Activa:     true,
		Orden:      req.Orden,
		Version:    uuid.New(),
	}
	if err := s.repo.Crear(ctx, l); err != nil {
		return nil, clasificarTxError(err)
	}
	return mapLista(l), nil
}

func (s *listaPrecioService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ListaPrecioResponse, error) {
	l, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, noEncontradoSi(err, "lista")
	}
	return mapLista(l), nil
}

func (s *listaPrecioService) Listar(ctx context.Context, incluirInactivas bool) ([]dto.ListaPrecioResponse, error) {
	listas, err := s.repo.Listar(ctx, incluirInactivas)
	if err != nil {
		return nil, clasificarTxError(err)
	}
	result := make([]dto.ListaPrecioResponse, 0, len(listas))
	for i := range listas {
		result = append(result, *mapLista(&listas[i]))
	}
	return result, nil
}

func (s *listaPrecioService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarListaPrecioRequest) (*dto.ListaPrecioResponse, error) {
	versionLeida, err := decodificarVersion(req.Version)
	if err != nil {
		return nil, err
	}

	l, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, noEncontradoSi(err, "lista")
	}

	if req.Nombre != nil {
		l.Nombre = *req.Nombre
	}
	if req.Tipo != nil {
		l.Tipo = *req.Tipo
	}
	if req.MargenPct != nil {
		l.MargenPct = *req.MargenPct
	}
	if req.RecargoPct != nil {
		l.RecargoPct = *req.RecargoPct
	}
	if req.Redondeo != nil {
		l.Redondeo = *req.Redondeo
	}
	if req.Orden != nil {
		l.Orden = *req.Orden
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.ActualizarConVersionTx(tx, l, versionLeida)
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
	return mapLista(l), nil
}

func (s *listaPrecioService) EstablecerPredeterminada(ctx context.Context, id uuid.UUID, version string) (*dto.ListaPrecioResponse, error) {
	versionLeida, err := decodificarVersion(version)
	if err != nil {
		return nil, err
	}

	l, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, noEncontradoSi(err, "lista")
	}
	if !l.Activa {
		return nil, fmt.Errorf("una lista inactiva no puede ser predeterminada: %w", ErrValidacion)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.LimpiarPredeterminadaTx(tx, id); err != nil {
			return err
		}
		l.EsPredeterminada = true
		ok, err := s.repo.ActualizarConVersionTx(tx, l, versionLeida)
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
	return mapLista(l), nil
}

func (s *listaPrecioService) Desactivar(ctx context.Context, id uuid.UUID, version string) error {
	versionLeida, err := decodificarVersion(version)
	if err != nil {
		return err
	}

	l, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		return noEncontradoSi(err, "lista")
	}
	if l.EsPredeterminada {
		return fmt.Errorf("la lista predeterminada no puede desactivarse; reasigne la predeterminada primero: %w", ErrValidacion)
	}

	l.Activa = false
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.ActualizarConVersionTx(tx, l, versionLeida)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflictoConcurrencia
		}
		return nil
	})
	return clasificarTxError(txErr)
}
