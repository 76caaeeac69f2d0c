package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reporta el estado de las dependencias del servicio de precios.
// Postgres caído es fatal (503); redis caído solo degrada la consulta pública
// de precios, el servicio sigue operativo.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		postgres := "ok"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			postgres = "caido"
		}

		cache := "ok"
		if rdb.Ping(ctx).Err() != nil {
			cache = "degradado"
		}

		status := http.StatusOK
		if postgres != "ok" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"servicio": "credipos-precios",
			"postgres": postgres,
			"cache":    cache,
		})
	}
}
