package infra

import (
	"fmt"

	"credipos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Categoria{},
		&model.Marca{},
		&model.Producto{},
		&model.ListaPrecio{},
		&model.PrecioProducto{},
		&model.LoteCambio{},
		&model.ItemLote{},
		&model.EventoCambioPrecio{},
		&model.DetalleCambioPrecio{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Los índices parciales respaldan en el esquema lo que la capa de servicio ya
// garantiza por transacción: un solo tramo vigente por par y una sola lista
// predeterminada.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Un único tramo abierto por (producto, lista).
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_precio_vigente_par') THEN
		    CREATE UNIQUE INDEX uni_precio_vigente_par
		        ON precios_productos (producto_id, lista_id)
		        WHERE vigente;
		  END IF;
		END $$`,
		// Una única lista predeterminada.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_lista_predeterminada') THEN
		    CREATE UNIQUE INDEX uni_lista_predeterminada
		        ON listas_precios (es_predeterminada)
		        WHERE es_predeterminada;
		  END IF;
		END $$`,
		// Índice de consulta histórica: la línea temporal de un par se recorre
		// del tramo más reciente al más antiguo.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_precio_par_desde') THEN
		    CREATE INDEX idx_precio_par_desde
		        ON precios_productos (producto_id, lista_id, vigente_desde DESC);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
