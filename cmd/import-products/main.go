// README: Creates the Supplements class and imports the product catalog JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/weaviate/weaviate/entities/models"

	"goshop/internal/config"
	"goshop/internal/infra"
	"goshop/internal/modules/catalog"
	"goshop/internal/search"
)

func supplementsClass() *models.Class {
	text := []string{"text"}
	textArray := []string{"text[]"}
	number := []string{"number"}
	return &models.Class{
		Class:      search.ClassName,
		Vectorizer: "text2vec-openai",
		ModuleConfig: map[string]interface{}{
			"text2vec-openai": map[string]interface{}{
				"model": "ada",
				"type":  "text",
			},
		},
		Properties: []*models.Property{
			{Name: "nombre", DataType: text},
			{Name: "descripcion", DataType: text},
			{Name: "precio", DataType: number},
			{Name: "inventario", DataType: number},
			{Name: "categoria", DataType: text},
			{Name: "ingredientes", DataType: textArray},
			{Name: "allergens", DataType: textArray},
			{Name: "usage", DataType: text},
			{Name: "recommended_for", DataType: textArray},
			{Name: "link", DataType: text},
			{Name: "image", DataType: text},
		},
	}
}

func main() {
	file := flag.String("file", "products.json", "JSON array of catalog items")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	client, err := infra.NewWeaviate(infra.WeaviateConfig{
		Host:      cfg.Weaviate.Host,
		Scheme:    cfg.Weaviate.Scheme,
		APIKey:    cfg.Weaviate.APIKey,
		OpenAIKey: cfg.Weaviate.OpenAIKey,
	})
	if err != nil {
		log.Fatalf("weaviate init: %v", err)
	}

	ctx := context.Background()
	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(search.ClassName).
		Do(ctx)
	if err != nil {
		log.Fatalf("schema check: %v", err)
	}
	if !exists {
		err = client.Schema().ClassCreator().
			WithClass(supplementsClass()).
			Do(ctx)
		if err != nil {
			log.Fatalf("schema create: %v", err)
		}
		log.Printf("created class %s", search.ClassName)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal(err)
	}
	var items []catalog.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}

	svc := catalog.NewService(client)
	imported, skipped := 0, 0
	for _, item := range items {
		err := svc.Add(ctx, item)
		switch {
		case err == nil:
			imported++
		case errors.Is(err, catalog.ErrAlreadyExists):
			skipped++
		default:
			log.Fatalf("import %q: %v", item.Nombre, err)
		}
	}
	log.Printf("imported %d items, skipped %d existing", imported, skipped)
}
