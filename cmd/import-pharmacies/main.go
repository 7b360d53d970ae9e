// README: Imports a pharmacy CSV (name,pueblo) and resolves maps links via Places.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"goshop/internal/config"
	"goshop/internal/infra"
	"goshop/internal/modules/pharmacy"
)

func main() {
	file := flag.String("file", "pharmacies.csv", "CSV with name,pueblo columns")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	store := pharmacy.NewStore(pool)

	var resolver *pharmacy.LinkResolver
	if cfg.Maps.APIKey != "" {
		resolver, err = pharmacy.NewLinkResolver(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
	} else {
		log.Println("MAPS_API_KEY not set, importing without maps links")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	imported := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("csv: %v", err)
		}
		name := strings.TrimSpace(record[0])
		pueblo := strings.TrimSpace(record[1])
		if name == "" || pueblo == "" || strings.EqualFold(name, "name") {
			continue
		}

		link := ""
		if resolver != nil {
			link, err = resolver.Resolve(ctx, name)
			if err != nil {
				log.Printf("places lookup failed for %q: %v", name, err)
			}
			// stay under the Places QPS limit
			time.Sleep(200 * time.Millisecond)
		}

		if err := store.Upsert(ctx, name, pueblo, link); err != nil {
			log.Fatalf("upsert %q: %v", name, err)
		}
		imported++
	}
	log.Printf("imported %d pharmacies", imported)
}
