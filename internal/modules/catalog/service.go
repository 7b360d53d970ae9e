// README: Catalog CRUD against the Weaviate Supplements class.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"

	"goshop/internal/search"
)

// itemNamespace seeds the deterministic item UUIDs so re-imports of the same
// nombre dedupe instead of duplicating.
var itemNamespace = uuid.MustParse("8e7262c9-27c9-4329-9038-2f4b78bd0ba2")

// Filter narrows List results; at most one field is applied, name first.
type Filter struct {
	Name     string
	Category string
	MinPrice float64
}

type Service struct {
	client *weaviate.Client
}

func NewService(client *weaviate.Client) *Service {
	return &Service{client: client}
}

// ItemID derives the deterministic UUID for a product name.
func ItemID(nombre string) string {
	return uuid.NewSHA1(itemNamespace, []byte(nombre)).String()
}

var listFields = []graphql.Field{
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

// List fetches catalog items with an optional filter.
func (s *Service) List(ctx context.Context, f Filter) ([]search.Product, error) {
	q := s.client.GraphQL().Get().
		WithClassName(search.ClassName).
		WithFields(listFields...).
		WithLimit(100)

	switch {
	case f.Name != "":
		q = q.WithWhere(filters.Where().
			WithPath([]string{"nombre"}).
			WithOperator(filters.Equal).
			WithValueText(f.Name))
	case f.Category != "":
		q = q.WithWhere(filters.Where().
			WithPath([]string{"categoria"}).
			WithOperator(filters.Equal).
			WithValueText(f.Category))
	case f.MinPrice > 0:
		q = q.WithWhere(filters.Where().
			WithPath([]string{"precio"}).
			WithOperator(filters.GreaterThan).
			WithValueNumber(f.MinPrice))
	}

	resp, err := q.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog list: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("catalog list: %s", resp.Errors[0].Message)
	}

	get, _ := resp.Data["Get"].(map[string]interface{})
	rows, _ := get[search.ClassName].([]interface{})
	items := make([]search.Product, 0, len(rows))
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		items = append(items, search.ProductFromProperties(props))
	}
	return items, nil
}

// Add inserts an item under its deterministic UUID.
func (s *Service) Add(ctx context.Context, item Item) error {
	if missing := item.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: missing fields: %v", ErrBadRequest, missing)
	}

	id := ItemID(item.Nombre)
	exists, err := s.client.Data().Checker().
		WithClassName(search.ClassName).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("catalog exists check: %w", err)
	}
	if exists {
		return ErrAlreadyExists
	}

	_, err = s.client.Data().Creator().
		WithClassName(search.ClassName).
		WithID(id).
		WithProperties(item.Properties()).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("catalog insert: %w", err)
	}
	return nil
}

// Update merges the given properties into the item with that nombre.
func (s *Service) Update(ctx context.Context, nombre string, props map[string]interface{}) error {
	id, err := s.findID(ctx, nombre)
	if err != nil {
		return err
	}
	err = s.client.Data().Updater().
		WithMerge().
		WithClassName(search.ClassName).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("catalog update: %w", err)
	}
	return nil
}

// Delete removes the item with that nombre.
func (s *Service) Delete(ctx context.Context, nombre string) error {
	id, err := s.findID(ctx, nombre)
	if err != nil {
		return err
	}
	err = s.client.Data().Deleter().
		WithClassName(search.ClassName).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("catalog delete: %w", err)
	}
	return nil
}

// findID resolves a nombre to the stored object id. Items imported before
// deterministic ids may carry arbitrary UUIDs, so this asks the index
// instead of recomputing the hash.
func (s *Service) findID(ctx context.Context, nombre string) (string, error) {
	resp, err := s.client.GraphQL().Get().
		WithClassName(search.ClassName).
		WithFields(graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}}).
		WithWhere(filters.Where().
			WithPath([]string{"nombre"}).
			WithOperator(filters.Equal).
			WithValueText(nombre)).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("catalog lookup: %w", err)
	}
	if len(resp.Errors) > 0 {
		return "", fmt.Errorf("catalog lookup: %s", resp.Errors[0].Message)
	}

	get, _ := resp.Data["Get"].(map[string]interface{})
	rows, _ := get[search.ClassName].([]interface{})
	if len(rows) == 0 {
		return "", ErrNotFound
	}
	props, _ := rows[0].(map[string]interface{})
	additional, _ := props["_additional"].(map[string]interface{})
	id, _ := additional["id"].(string)
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}
