package handler

import (
	"net/http"
	"strconv"

	"credipos/internal/apierror"
	"credipos/internal/dto"
	"credipos/internal/middleware"
	"credipos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CambiosPreciosHandler expone los cambios directos: ajustes porcentuales
// inmediatos sin circuito de aprobación, y su reversión.
type CambiosPreciosHandler struct {
	svc service.CambioDirectoService
}

func NewCambiosPreciosHandler(svc service.CambioDirectoService) *CambiosPreciosHandler {
	return &CambiosPreciosHandler{svc: svc}
}

// Aplicar godoc
// @Summary      Aplicar cambio directo de precios
// @Description  Ajuste porcentual inmediato sobre un alcance de productos. Un
// @Description  precio resultante negativo aborta el cambio completo.
// @Tags         cambios-precios
// @Security     BearerAuth
// @Param        body body dto.AplicarCambioDirectoRequest true "Cambio"
// @Success      200 {object} dto.CambioDirectoResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cambios-precios [post]
func (h *CambiosPreciosHandler) Aplicar(c *gin.Context) {
	var req dto.AplicarCambioDirectoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Aplicar(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Revertir godoc
// @Summary      Revertir un cambio directo
// @Description  Crea un evento inverso y reinstala los precios previos. Un
// @Description  evento ya revertido o que ya es una reversión responde 409.
// @Tags         cambios-precios
// @Security     BearerAuth
// @Param        id   path string true "UUID del evento"
// @Param        body body dto.RevertirCambioDirectoRequest true "Motivo"
// @Success      200 {object} dto.CambioDirectoResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/cambios-precios/{id}/revertir [post]
func (h *CambiosPreciosHandler) Revertir(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de evento inválido"))
		return
	}
	var req dto.RevertirCambioDirectoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Revertir(c.Request.Context(), actor, id, req.Motivo)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Detalle de un evento de cambio
// @Tags         cambios-precios
// @Security     BearerAuth
// @Param        id path string true "UUID del evento"
// @Success      200 {object} dto.EventoCambioResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cambios-precios/{id} [get]
func (h *CambiosPreciosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de evento inválido"))
		return
	}
	resp, err := h.svc.ObtenerEvento(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listado de eventos de cambio (más reciente primero)
// @Tags         cambios-precios
// @Security     BearerAuth
// @Param        page  query int false "Página (default 1)"
// @Param        limit query int false "Registros por página (default 20)"
// @Success      200 {object} dto.EventoCambioListResponse
// @Router       /v1/cambios-precios [get]
func (h *CambiosPreciosHandler) Listar(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.ListarEventos(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PorProducto godoc
// @Summary      Eventos de cambio que afectaron a un producto
// @Tags         cambios-precios
// @Security     BearerAuth
// @Param        id    path  string true  "UUID del producto"
// @Param        page  query int    false "Página (default 1)"
// @Param        limit query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.EventoCambioListResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/{id}/cambios-precios [get]
func (h *CambiosPreciosHandler) PorProducto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.ListarEventosPorProducto(c.Request.Context(), id, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
