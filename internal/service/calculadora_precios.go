package service

import (
	"github.com/shopspring/decimal"

	"credipos/internal/model"
)

// Calculadora de precios: funciones puras y totales, sin persistencia. No
// rechazan resultados negativos — validar antes de persistir es responsabilidad
// del llamador.

var cien = decimal.NewFromInt(100)

// CalcularNuevoPrecio computa el precio candidato a partir de una base según el
// modo y la dirección del cambio.
//
//   - porcentaje_precio / porcentaje_costo: base × (1 ± magnitud/100). El
//     llamador elige la base (precio vigente o costo).
//   - valor_absoluto: base ± magnitud (la base es el precio vigente).
//   - asignacion_directa: magnitud tal cual. La dirección se ignora — el
//     comportamiento viene así del producto original y está pendiente de
//     definición comercial, no lo "corrijas" acá.
func CalcularNuevoPrecio(base, magnitud decimal.Decimal, modo, direccion string) decimal.Decimal {
	signo := decimal.NewFromInt(1)
	if direccion == model.DireccionDisminucion {
		signo = decimal.NewFromInt(-1)
	}

	switch modo {
	case model.ModoPorcentajePrecio, model.ModoPorcentajeCosto:
		factor := decimal.NewFromInt(1).Add(signo.Mul(magnitud).Div(cien))
		return base.Mul(factor)
	case model.ModoValorAbsoluto:
		return base.Add(signo.Mul(magnitud))
	case model.ModoAsignacionDirecta:
		return magnitud
	default:
		return base
	}
}

// AplicarRedondeo redondea un precio según la regla de la lista. Una regla
// desconocida o vacía redondea a la centena, el default histórico de la
// plataforma. Round usa half-away-from-zero.
func AplicarRedondeo(precio decimal.Decimal, regla string) decimal.Decimal {
	switch regla {
	case model.RedondeoNinguno:
		return precio
	case model.RedondeoUnidad:
		return precio.Round(0)
	case model.RedondeoDecena:
		return redondearMultiplo(precio, 10)
	default: // centena, o regla sin especificar
		return redondearMultiplo(precio, 100)
	}
}

func redondearMultiplo(precio decimal.Decimal, multiplo int64) decimal.Decimal {
	m := decimal.NewFromInt(multiplo)
	return precio.Div(m).Round(0).Mul(m)
}

// CalcularMargen devuelve (precio − costo) / costo × 100, o cero si el costo no
// es positivo.
func CalcularMargen(precio, costo decimal.Decimal) decimal.Decimal {
	if !costo.IsPositive() {
		return decimal.Zero
	}
	return precio.Sub(costo).Div(costo).Mul(cien)
}

// CalcularDeltaPct devuelve la variación porcentual entre dos precios, o cero
// si el anterior no es positivo.
func CalcularDeltaPct(anterior, nuevo decimal.Decimal) decimal.Decimal {
	if !anterior.IsPositive() {
		return decimal.Zero
	}
	return nuevo.Sub(anterior).Div(anterior).Mul(cien)
}
