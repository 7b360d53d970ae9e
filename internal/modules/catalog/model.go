// README: Catalog item type and validation.
package catalog

import "errors"

var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("item not found")
	ErrAlreadyExists = errors.New("item already exists")
)

// Item is one catalog entry as stored in the Supplements class. Field names
// follow the index schema (Spanish).
type Item struct {
	Nombre         string   `json:"nombre"`
	Precio         float64  `json:"precio"`
	Inventario     float64  `json:"inventario"`
	Categoria      string   `json:"categoria"`
	Descripcion    string   `json:"descripcion"`
	Ingredientes   []string `json:"ingredientes"`
	Allergens      []string `json:"allergens"`
	Usage          string   `json:"usage"`
	RecommendedFor []string `json:"recommended_for"`
	Link           string   `json:"link"`
	Image          string   `json:"image,omitempty"`
}

// MissingFields lists the required fields an incoming item lacks.
func (i Item) MissingFields() []string {
	var missing []string
	if i.Nombre == "" {
		missing = append(missing, "nombre")
	}
	if i.Precio == 0 {
		missing = append(missing, "precio")
	}
	if i.Categoria == "" {
		missing = append(missing, "categoria")
	}
	if i.Descripcion == "" {
		missing = append(missing, "descripcion")
	}
	if len(i.Ingredientes) == 0 {
		missing = append(missing, "ingredientes")
	}
	if i.Usage == "" {
		missing = append(missing, "usage")
	}
	if i.Link == "" {
		missing = append(missing, "link")
	}
	return missing
}

// Properties converts the item into the property map the index expects.
func (i Item) Properties() map[string]interface{} {
	return map[string]interface{}{
		"nombre":          i.Nombre,
		"precio":          i.Precio,
		"inventario":      i.Inventario,
		"categoria":       i.Categoria,
		"descripcion":     i.Descripcion,
		"ingredientes":    i.Ingredientes,
		"allergens":       i.Allergens,
		"usage":           i.Usage,
		"recommended_for": i.RecommendedFor,
		"link":            i.Link,
		"image":           i.Image,
	}
}
