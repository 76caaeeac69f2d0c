package handler

import (
	"errors"
	"net/http"
	"reflect"

	"credipos/internal/apierror"
	"credipos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondServiceError traduce la taxonomía de errores de la capa de servicio a
// códigos HTTP. Todo error que no encaja en la taxonomía se responde como 500
// sin filtrar detalles internos.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.NewConCodigo("no_encontrado", err.Error()))
	case errors.Is(err, service.ErrValidacion):
		c.JSON(http.StatusBadRequest, apierror.NewConCodigo("validacion", err.Error()))
	case errors.Is(err, service.ErrSinCambios):
		c.JSON(http.StatusBadRequest, apierror.NewConCodigo("sin_cambios", err.Error()))
	case errors.Is(err, service.ErrEstadoInvalido):
		c.JSON(http.StatusConflict, apierror.NewConCodigo("estado_invalido", err.Error()))
	case errors.Is(err, service.ErrConflictoConcurrencia):
		c.JSON(http.StatusConflict, apierror.NewConCodigo("conflicto_concurrencia", err.Error()))
	case errors.Is(err, service.ErrYaProcesado):
		c.JSON(http.StatusConflict, apierror.NewConCodigo("ya_procesado", err.Error()))
	case errors.Is(err, service.ErrFalloTransitorio):
		c.JSON(http.StatusServiceUnavailable, apierror.NewConCodigo("fallo_transitorio", "Error transitorio, reintente"))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno"))
	}
}
