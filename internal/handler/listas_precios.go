package handler

import (
	"net/http"

	"credipos/internal/apierror"
	"credipos/internal/dto"
	"credipos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListasPreciosHandler administra el catálogo de listas de precios.
type ListasPreciosHandler struct {
	svc service.ListaPrecioService
}

func NewListasPreciosHandler(svc service.ListaPrecioService) *ListasPreciosHandler {
	return &ListasPreciosHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear lista de precios
// @Tags         listas-precios
// @Security     BearerAuth
// @Accept       json
// @Param        body body dto.CrearListaPrecioRequest true "Lista"
// @Success      201 {object} dto.ListaPrecioResponse
// @Failure      400 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/listas-precios [post]
func (h *ListasPreciosHandler) Crear(c *gin.Context) {
	var req dto.CrearListaPrecioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar listas de precios
// @Tags         listas-precios
// @Security     BearerAuth
// @Param        incluir_inactivas query bool false "Incluir listas desactivadas"
// @Success      200 {array} dto.ListaPrecioResponse
// @Router       /v1/listas-precios [get]
func (h *ListasPreciosHandler) Listar(c *gin.Context) {
	incluirInactivas := c.Query("incluir_inactivas") == "true"
	resp, err := h.svc.Listar(c.Request.Context(), incluirInactivas)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener lista de precios
// @Tags         listas-precios
// @Security     BearerAuth
// @Param        id path string true "UUID de la lista"
// @Success      200 {object} dto.ListaPrecioResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/listas-precios/{id} [get]
func (h *ListasPreciosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lista inválido"))
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar lista de precios
// @Description  Requiere el token de versión leído junto con la lista; un token
// @Description  vencido responde 409 y el cliente debe releer.
// @Tags         listas-precios
// @Security     BearerAuth
// @Param        id   path string true "UUID de la lista"
// @Param        body body dto.ActualizarListaPrecioRequest true "Campos a modificar"
// @Success      200 {object} dto.ListaPrecioResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/listas-precios/{id} [put]
func (h *ListasPreciosHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lista inválido"))
		return
	}
	var req dto.ActualizarListaPrecioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EstablecerPredeterminada godoc
// @Summary      Marcar lista como predeterminada
// @Tags         listas-precios
// @Security     BearerAuth
// @Param        id   path string true "UUID de la lista"
// @Param        body body dto.TransicionLoteRequest true "Token de versión"
// @Success      200 {object} dto.ListaPrecioResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/listas-precios/{id}/predeterminada [put]
func (h *ListasPreciosHandler) EstablecerPredeterminada(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lista inválido"))
		return
	}
	var req struct {
		Version string `json:"version" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EstablecerPredeterminada(c.Request.Context(), id, req.Version)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactivar godoc
// @Summary      Desactivar lista de precios (baja lógica)
// @Tags         listas-precios
// @Security     BearerAuth
// @Param        id      path  string true "UUID de la lista"
// @Param        version query string true "Token de versión"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/listas-precios/{id} [delete]
func (h *ListasPreciosHandler) Desactivar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de lista inválido"))
		return
	}
	version := c.Query("version")
	if version == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el token de versión"))
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id, version); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
