// README: Product record returned by the semantic index.
package search

// Product is one row from the Supplements index, passed through to the
// response payload unmodified. JSON field names match what the chat widget
// renders.
type Product struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	Category       string  `json:"category"`
	Link           string  `json:"link"`
	Usage          string  `json:"usage,omitempty"`
	RecommendedFor string  `json:"recommended_for,omitempty"`
	Allergens      string  `json:"allergens,omitempty"`
	Image          string  `json:"image,omitempty"`
}
