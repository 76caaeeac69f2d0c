package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"credipos/internal/apierror"
	"credipos/internal/dto"
	"credipos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const precioCacheTTL = 4 * time.Hour

// ConsultaPreciosHandler serves the public price check endpoint.
// No authentication required — no side effects whatsoever.
// Responde el precio vigente del producto en la lista predeterminada; si el
// par no tiene tramo vigente, cae al precio plano del producto.
type ConsultaPreciosHandler struct {
	productoRepo repository.ProductoRepository
	precioRepo   repository.PrecioProductoRepository
	listaRepo    repository.ListaPrecioRepository
	rdb          *redis.Client
}

func NewConsultaPreciosHandler(
	productoRepo repository.ProductoRepository,
	precioRepo repository.PrecioProductoRepository,
	listaRepo repository.ListaPrecioRepository,
	rdb *redis.Client,
) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{
		productoRepo: productoRepo,
		precioRepo:   precioRepo,
		listaRepo:    listaRepo,
		rdb:          rdb,
	}
}

// GetPrecioPorBarcode godoc
// @Summary Consulta de precio por codigo de barras (sin autenticacion)
// @Tags precio
// @Produce json
// @Param barcode path string true "Codigo de barras"
// @Success 200 {object} dto.ConsultaPrecioResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{barcode} [get]
func (h *ConsultaPreciosHandler) GetPrecioPorBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	ctx := c.Request.Context()
	cacheKey := "precio:" + barcode

	// 1. Try Redis cache (target: <50ms p99)
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.ConsultaPrecioResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	producto, err := h.productoRepo.ObtenerPorBarcode(ctx, barcode)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}

	resp := dto.ConsultaPrecioResponse{
		Nombre:          producto.Nombre,
		Precio:          producto.PrecioVenta,
		StockDisponible: producto.StockActual,
	}
	if lista, err := h.listaRepo.ObtenerPredeterminada(ctx); err == nil {
		resp.Lista = lista.Nombre
		if vigente, err := h.precioRepo.ObtenerVigente(ctx, producto.ID, lista.ID); err == nil {
			resp.Precio = vigente.Precio
		}
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, precioCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
