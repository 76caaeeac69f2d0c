package handler

import (
	"net/http"
	"time"

	"credipos/internal/apierror"
	"credipos/internal/dto"
	"credipos/internal/middleware"
	"credipos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LotesCambiosHandler expone el circuito gobernado de cambios masivos:
// simulación, aprobación, aplicación y reversión de lotes.
type LotesCambiosHandler struct {
	svc service.LoteCambioService
}

func NewLotesCambiosHandler(svc service.LoteCambioService) *LotesCambiosHandler {
	return &LotesCambiosHandler{svc: svc}
}

// Simular godoc
// @Summary      Simular un lote de cambio masivo
// @Description  Calcula el precio propuesto por cada par (producto, lista) del
// @Description  alcance sin tocar ningún precio real. El lote queda en estado
// @Description  simulado, listo para aprobar o rechazar.
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        body body dto.SimularLoteRequest true "Lote"
// @Success      201 {object} dto.LoteCambioResponse
// @Failure      400 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/lotes-cambios [post]
func (h *LotesCambiosHandler) Simular(c *gin.Context) {
	var req dto.SimularLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Simular(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// transicion centraliza el parseo común de las operaciones de estado.
func (h *LotesCambiosHandler) transicion(
	c *gin.Context,
	fn func(loteID uuid.UUID, req dto.TransicionLoteRequest, actor string) (*dto.LoteCambioResponse, error),
) {
	loteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lote inválido"))
		return
	}
	var req dto.TransicionLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := fn(loteID, req, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Aprobar godoc
// @Summary      Aprobar un lote simulado
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        id   path string true "UUID del lote"
// @Param        body body dto.TransicionLoteRequest true "Token de versión"
// @Success      200 {object} dto.LoteCambioResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/lotes-cambios/{id}/aprobar [post]
func (h *LotesCambiosHandler) Aprobar(c *gin.Context) {
	h.transicion(c, func(loteID uuid.UUID, req dto.TransicionLoteRequest, actor string) (*dto.LoteCambioResponse, error) {
		return h.svc.Aprobar(c.Request.Context(), loteID, req.Version, actor, req.Motivo)
	})
}

// Rechazar godoc
// @Summary      Rechazar un lote simulado
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        id   path string true "UUID del lote"
// @Param        body body dto.TransicionLoteRequest true "Token de versión y motivo"
// @Success      200 {object} dto.LoteCambioResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/lotes-cambios/{id}/rechazar [post]
func (h *LotesCambiosHandler) Rechazar(c *gin.Context) {
	h.transicion(c, func(loteID uuid.UUID, req dto.TransicionLoteRequest, actor string) (*dto.LoteCambioResponse, error) {
		return h.svc.Rechazar(c.Request.Context(), loteID, req.Version, actor, req.Motivo)
	})
}

// Cancelar godoc
// @Summary      Cancelar un lote simulado o aprobado
// @Description  Un lote ya aplicado no se cancela: debe revertirse.
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        id   path string true "UUID del lote"
// @Param        body body dto.TransicionLoteRequest true "Token de versión y motivo"
// @Success      200 {object} dto.LoteCambioResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/lotes-cambios/{id}/cancelar [post]
func (h *LotesCambiosHandler) Cancelar(c *gin.Context) {
	h.transicion(c, func(loteID uuid.UUID, req dto.TransicionLoteRequest, actor string) (*dto.LoteCambioResponse, error) {
		return h.svc.Cancelar(c.Request.Context(), loteID, req.Version, actor, req.Motivo)
	})
}

// Aplicar godoc
// @Summary      Aplicar un lote aprobado
// @Description  Escribe los precios propuestos de todos los items sin
// @Description  advertencia en una sola transacción. Acepta fecha_efectiva
// @Description  (RFC3339) como inicio de vigencia; por defecto, ahora.
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        id   path string true "UUID del lote"
// @Param        body body dto.TransicionLoteRequest true "Token de versión"
// @Success      200 {object} dto.LoteCambioResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/lotes-cambios/{id}/aplicar [post]
func (h *LotesCambiosHandler) Aplicar(c *gin.Context) {
	loteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lote inválido"))
		return
	}
	var req dto.TransicionLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var fechaEfectiva *time.Time
	if req.FechaEfectiva != nil && *req.FechaEfectiva != "" {
		t, err := time.Parse(time.RFC3339, *req.FechaEfectiva)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("fecha_efectiva inválida, se espera RFC3339"))
			return
		}
		fechaEfectiva = &t
	}

	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Aplicar(c.Request.Context(), loteID, req.Version, actor, fechaEfectiva)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Revertir godoc
// @Summary      Revertir un lote aplicado
// @Description  Crea un lote inverso ya aplicado y reinstala los precios
// @Description  previos de cada item. El lote original queda en revertido.
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        id   path string true "UUID del lote"
// @Param        body body dto.TransicionLoteRequest true "Token de versión y motivo"
// @Success      200 {object} dto.LoteCambioResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/lotes-cambios/{id}/revertir [post]
func (h *LotesCambiosHandler) Revertir(c *gin.Context) {
	h.transicion(c, func(loteID uuid.UUID, req dto.TransicionLoteRequest, actor string) (*dto.LoteCambioResponse, error) {
		return h.svc.Revertir(c.Request.Context(), loteID, req.Version, actor, req.Motivo)
	})
}

// Obtener godoc
// @Summary      Detalle de un lote con sus items
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        id path string true "UUID del lote"
// @Success      200 {object} dto.LoteCambioResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/lotes-cambios/{id} [get]
func (h *LotesCambiosHandler) Obtener(c *gin.Context) {
	loteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lote inválido"))
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), loteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listado de lotes (filtrable por estado)
// @Tags         lotes-cambios
// @Security     BearerAuth
// @Param        estado query string false "simulado|aprobado|rechazado|cancelado|aplicado|revertido"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.LoteListResponse
// @Router       /v1/lotes-cambios [get]
func (h *LotesCambiosHandler) Listar(c *gin.Context) {
	var filter dto.LoteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Filtros inválidos: "+err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Filtros inválidos"))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
