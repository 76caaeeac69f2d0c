package handler

import (
	"net/http"
	"strconv"
	"time"

	"credipos/internal/apierror"
	"credipos/internal/dto"
	"credipos/internal/middleware"
	"credipos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PreciosHandler expone la línea temporal de precios por (producto, lista):
// vigente, consulta a una fecha, historial paginado y asignación manual.
type PreciosHandler struct {
	svc service.PrecioService
}

func NewPreciosHandler(svc service.PrecioService) *PreciosHandler {
	return &PreciosHandler{svc: svc}
}

// Vigentes godoc
// @Summary      Precios vigentes de un producto en todas las listas
// @Tags         precios
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      200 {array} dto.PrecioVigenteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/{id}/precios [get]
func (h *PreciosHandler) Vigentes(c *gin.Context) {
	productoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return
	}
	resp, err := h.svc.VigentesPorProducto(c.Request.Context(), productoID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Vigente godoc
// @Summary      Precio vigente de un par (producto, lista)
// @Description  Con ?en=RFC3339 devuelve el precio que regía en ese momento.
// @Tags         precios
// @Security     BearerAuth
// @Param        id      path  string true  "UUID del producto"
// @Param        listaId path  string true  "UUID de la lista"
// @Param        en      query string false "Momento de consulta (RFC3339)"
// @Success      200 {object} dto.PrecioVigenteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/{id}/precios/{listaId} [get]
func (h *PreciosHandler) Vigente(c *gin.Context) {
	productoID, listaID, ok := parsePar(c)
	if !ok {
		return
	}

	var momento *time.Time
	if en := c.Query("en"); en != "" {
		t, err := time.Parse(time.RFC3339, en)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Parámetro 'en' inválido, se espera RFC3339"))
			return
		}
		momento = &t
	}

	resp, err := h.svc.ObtenerVigente(c.Request.Context(), productoID, listaID, momento)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary      Historial de precios de un par (producto, lista)
// @Description  Tramos ordenados del más reciente al más antiguo.
// @Tags         precios
// @Security     BearerAuth
// @Param        id      path  string true  "UUID del producto"
// @Param        listaId path  string true  "UUID de la lista"
// @Param        page    query int    false "Página (default 1)"
// @Param        limit   query int    false "Registros por página (default 50, max 200)"
// @Success      200 {object} dto.HistorialPreciosResponse
// @Router       /v1/productos/{id}/precios/{listaId}/historial [get]
func (h *PreciosHandler) Historial(c *gin.Context) {
	productoID, listaID, ok := parsePar(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.Historial(c.Request.Context(), productoID, listaID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AsignarManual godoc
// @Summary      Asignar precio manual a un par (producto, lista)
// @Description  Cierra el tramo vigente y abre uno nuevo marcado como manual.
// @Tags         precios
// @Security     BearerAuth
// @Param        id      path string true "UUID del producto"
// @Param        listaId path string true "UUID de la lista"
// @Param        body    body dto.AsignarPrecioManualRequest true "Precio"
// @Success      200 {object} dto.PrecioVigenteResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /v1/productos/{id}/precios/{listaId} [put]
func (h *PreciosHandler) AsignarManual(c *gin.Context) {
	productoID, listaID, ok := parsePar(c)
	if !ok {
		return
	}
	var req dto.AsignarPrecioManualRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.AsignarManual(c.Request.Context(), actor, productoID, listaID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parsePar(c *gin.Context) (productoID, listaID uuid.UUID, ok bool) {
	productoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return uuid.Nil, uuid.Nil, false
	}
	listaID, err = uuid.Parse(c.Param("listaId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lista inválido"))
		return uuid.Nil, uuid.Nil, false
	}
	return productoID, listaID, true
}
