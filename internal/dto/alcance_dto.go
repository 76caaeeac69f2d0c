package dto

import (
	"fmt"
	"strings"
)

// AlcanceCambio selecciona los productos que toca un cambio de precios.
// Si ProductoIDs no está vacío, anula por completo los filtros de
// categoría/marca/texto/stock. Se valida una sola vez en el borde de la API y
// se guarda serializado tal cual en el lote.
type AlcanceCambio struct {
	CategoriaIDs  []string `json:"categoria_ids"  validate:"omitempty,dive,uuid"`
	MarcaIDs      []string `json:"marca_ids"      validate:"omitempty,dive,uuid"`
	TextoBusqueda string   `json:"texto_busqueda" validate:"omitempty,max=120"`
	SoloActivos   bool     `json:"solo_activos"`
	SoloBajoStock bool     `json:"solo_bajo_stock"`
	ProductoIDs   []string `json:"producto_ids"   validate:"omitempty,dive,uuid"`
}

// Vacio indica que el alcance no define ningún criterio de selección.
func (a AlcanceCambio) Vacio() bool {
	return len(a.ProductoIDs) == 0 && len(a.CategoriaIDs) == 0 && len(a.MarcaIDs) == 0 &&
		a.TextoBusqueda == "" && !a.SoloBajoStock
}

// Explicito indica que el alcance enumera productos puntuales.
func (a AlcanceCambio) Explicito() bool { return len(a.ProductoIDs) > 0 }

// Descripcion arma el texto legible que queda en el evento de auditoría.
func (a AlcanceCambio) Descripcion() string {
	if a.Explicito() {
		return fmt.Sprintf("%d productos seleccionados", len(a.ProductoIDs))
	}
	var partes []string
	if len(a.CategoriaIDs) > 0 {
		partes = append(partes, fmt.Sprintf("%d categorías", len(a.CategoriaIDs)))
	}
	if len(a.MarcaIDs) > 0 {
		partes = append(partes, fmt.Sprintf("%d marcas", len(a.MarcaIDs)))
	}
	if a.TextoBusqueda != "" {
		partes = append(partes, fmt.Sprintf("texto %q", a.TextoBusqueda))
	}
	if a.SoloBajoStock {
		partes = append(partes, "solo bajo stock")
	}
	if len(partes) == 0 {
		return "todos los productos"
	}
	return "filtro: " + strings.Join(partes, ", ")
}
