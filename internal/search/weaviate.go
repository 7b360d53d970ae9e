// README: Semantic product search against the Weaviate "Supplements" class.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding the product catalog. Property
// names are Spanish because that is how the index was provisioned.
const ClassName = "Supplements"

// Searcher runs concept searches against the product index.
type Searcher interface {
	// Search returns up to limit products ranked by semantic closeness to
	// the concepts. An empty result is valid; callers treat errors as an
	// empty result too.
	Search(ctx context.Context, concepts []string, limit int) ([]Product, error)
}

// WeaviateSearcher implements Searcher over the hosted vector index.
type WeaviateSearcher struct {
	client *weaviate.Client
}

func NewWeaviateSearcher(client *weaviate.Client) *WeaviateSearcher {
	return &WeaviateSearcher{client: client}
}

var productFields = []graphql.Field{
	{Name: "nombre"},
	{Name: "descripcion"},
	{Name: "precio"},
	{Name: "categoria"},
	{Name: "link"},
	{Name: "usage"},
	{Name: "recommended_for"},
	{Name: "allergens"},
	{Name: "image"},
}

func (s *WeaviateSearcher) Search(ctx context.Context, concepts []string, limit int) ([]Product, error) {
	cleaned := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().WithConcepts(cleaned)
	resp, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(productFields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate near_text: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate near_text: %s", resp.Errors[0].Message)
	}

	return decodeProducts(resp.Data)
}

// decodeProducts unwraps the GraphQL Get payload into Product records.
func decodeProducts(data map[string]models.JSONObject) ([]Product, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	rows, ok := get[ClassName].([]interface{})
	if !ok {
		return nil, nil
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		products = append(products, ProductFromProperties(props))
	}
	return products, nil
}

// ProductFromProperties maps the Spanish index properties onto a Product.
// Missing or mistyped properties resolve to zero values instead of failing
// the whole result set.
func ProductFromProperties(props map[string]interface{}) Product {
	return Product{
		Name:           str(props["nombre"]),
		Description:    str(props["descripcion"]),
		Price:          num(props["precio"]),
		Category:       str(props["categoria"]),
		Link:           str(props["link"]),
		Usage:          str(props["usage"]),
		RecommendedFor: str(props["recommended_for"]),
		Allergens:      str(props["allergens"]),
		Image:          str(props["image"]),
	}
}

// str flattens a property value; array properties (recommended_for,
// allergens) are joined for display.
func str(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []interface{}:
		parts := make([]string, 0, len(s))
		for _, p := range s {
			if ps, ok := p.(string); ok {
				parts = append(parts, ps)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func num(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
