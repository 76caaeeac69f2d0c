package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// clasificarTxError deja pasar los errores de dominio y envuelve cualquier otra
// falla de persistencia (timeout, contención de locks) como transitoria. La
// transacción ya quedó revertida; el llamador decide si reintenta.
func clasificarTxError(err error) error {
	if err == nil {
		return nil
	}
	for _, dom := range []error{
		ErrNoEncontrado, ErrEstadoInvalido, ErrConflictoConcurrencia,
		ErrValidacion, ErrSinCambios, ErrYaProcesado,
	} {
		if errors.Is(err, dom) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrFalloTransitorio, err)
}

// noEncontradoSi traduce el not-found de GORM al error de dominio.
func noEncontradoSi(err error, que string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", que, ErrNoEncontrado)
	}
	return err
}
