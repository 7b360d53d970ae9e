// README: Entry point; loads config, wires adapters and services, starts HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"goshop/internal/ai"
	"goshop/internal/config"
	httptransport "goshop/internal/http"
	"goshop/internal/infra"
	"goshop/internal/modules/analytics"
	"goshop/internal/modules/catalog"
	"goshop/internal/modules/chat"
	"goshop/internal/modules/pharmacy"
	"goshop/internal/modules/transcript"
	"goshop/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	weaviateClient, err := infra.NewWeaviate(infra.WeaviateConfig{
		Host:      cfg.Weaviate.Host,
		Scheme:    cfg.Weaviate.Scheme,
		APIKey:    cfg.Weaviate.APIKey,
		OpenAIKey: cfg.Weaviate.OpenAIKey,
	})
	if err != nil {
		log.Fatalf("weaviate init: %v", err)
	}

	if cfg.AI.GeminiKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	classifier, err := ai.NewGeminiClassifier(ctx, cfg.AI.GeminiKey)
	if err != nil {
		log.Fatalf("classifier init: %v", err)
	}
	defer classifier.Close()

	chatStore := chat.NewStore(dbPool)
	pharmacyStore := pharmacy.NewStore(dbPool)
	transcriptStore := transcript.NewStore(redisClient)
	searcher := search.NewWeaviateSearcher(weaviateClient)

	analyticsStore := analytics.NewStore(dbPool)
	analyticsSvc := analytics.NewService(analyticsStore, logger)

	catalogSvc := catalog.NewService(weaviateClient)

	engine := chat.NewEngine(chat.Deps{
		Store:      chatStore,
		Classifier: classifier,
		Searcher:   searcher,
		Pharmacies: pharmacyStore,
		Transcript: transcriptStore,
		Analytics:  analyticsSvc,
		Log:        logger,
		Config:     cfg.Chat,
	})

	handler := httptransport.NewRouter(engine, catalogSvc, analyticsSvc, transcriptStore, logger)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", cfg.HTTP.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
