package router

import (
	"time"

	"credipos/internal/config"
	"credipos/internal/handler"
	"credipos/internal/infra"
	"credipos/internal/middleware"
	"credipos/internal/repository"
	"credipos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(db)
	listaRepo := repository.NewListaPrecioRepository(db)
	precioRepo := repository.NewPrecioProductoRepository(db)
	loteRepo := repository.NewLoteCambioRepository(db)
	eventoRepo := repository.NewEventoCambioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	listaSvc := service.NewListaPrecioService(listaRepo)
	precioSvc := service.NewPrecioService(precioRepo, productoRepo, listaRepo, eventoRepo, rdb)
	cambioDirectoSvc := service.NewCambioDirectoService(eventoRepo, productoRepo, precioRepo, listaRepo, rdb)
	loteSvc := service.NewLoteCambioService(
		loteRepo, productoRepo, precioRepo, listaRepo, rdb, mailer,
		decimal.NewFromFloat(cfg.UmbralAutorizacionPct),
		cfg.PermitirReversionEncadenada,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	listasH := handler.NewListasPreciosHandler(listaSvc)
	preciosH := handler.NewPreciosHandler(precioSvc)
	cambiosH := handler.NewCambiosPreciosHandler(cambioDirectoSvc)
	lotesH := handler.NewLotesCambiosHandler(loteSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoRepo, precioRepo, listaRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Price check — no auth required
	r.GET("/v1/precio/:barcode", consultaH.GetPrecioPorBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		lectura := middleware.RequireRole(middleware.RolOperador, middleware.RolSupervisor, middleware.RolAdministrador)
		supervision := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)
		admin := middleware.RequireRole(middleware.RolAdministrador)

		// Listas de precios — lectura para todos, escritura para administrador
		v1.GET("/listas-precios", lectura, listasH.Listar)
		v1.GET("/listas-precios/:id", lectura, listasH.Obtener)
		listas := v1.Group("/listas-precios", admin)
		{
			listas.POST("", listasH.Crear)
			listas.PUT("/:id", listasH.Actualizar)
			listas.PUT("/:id/predeterminada", listasH.EstablecerPredeterminada)
			listas.DELETE("/:id", listasH.Desactivar)
		}

		// Línea temporal de precios por producto
		v1.GET("/productos/:id/precios", lectura, preciosH.Vigentes)
		v1.GET("/productos/:id/precios/:listaId", lectura, preciosH.Vigente)
		v1.GET("/productos/:id/precios/:listaId/historial", lectura, preciosH.Historial)
		v1.PUT("/productos/:id/precios/:listaId", supervision, preciosH.AsignarManual)
		v1.GET("/productos/:id/cambios-precios", lectura, cambiosH.PorProducto)

		// Cambios directos — aplicar requiere supervisión, revertir también
		v1.GET("/cambios-precios", lectura, cambiosH.Listar)
		v1.GET("/cambios-precios/:id", lectura, cambiosH.Obtener)
		v1.POST("/cambios-precios", supervision, cambiosH.Aplicar)
		v1.POST("/cambios-precios/:id/revertir", supervision, cambiosH.Revertir)

		// Lotes de cambio masivo — simula la supervisión; aprobar, aplicar y
		// revertir son del administrador (quien simula no se auto-aprueba)
		v1.GET("/lotes-cambios", lectura, lotesH.Listar)
		v1.GET("/lotes-cambios/:id", lectura, lotesH.Obtener)
		v1.POST("/lotes-cambios", supervision, lotesH.Simular)
		v1.POST("/lotes-cambios/:id/aprobar", admin, lotesH.Aprobar)
		v1.POST("/lotes-cambios/:id/rechazar", admin, lotesH.Rechazar)
		v1.POST("/lotes-cambios/:id/cancelar", supervision, lotesH.Cancelar)
		v1.POST("/lotes-cambios/:id/aplicar", admin, lotesH.Aplicar)
		v1.POST("/lotes-cambios/:id/revertir", admin, lotesH.Revertir)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
