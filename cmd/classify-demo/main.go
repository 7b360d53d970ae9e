// README: Quick manual check of the Gemini zero-shot classifier.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"goshop/internal/ai"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	classifier, err := ai.NewGeminiClassifier(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize classifier: %v", err)
	}
	defer classifier.Close()

	message := "quiero algo para dormir mejor"
	if len(os.Args) > 1 {
		message = strings.Join(os.Args[1:], " ")
	}
	labels := []string{"articular", "hombres", "higado", "sueño", "energía", "digestión", "corazón", "inmunidad", "omega", "otro"}

	fmt.Printf("Message: %s\n", message)
	result, err := classifier.Classify(ctx, message, labels)
	if err != nil {
		log.Fatalf("Error classifying: %v", err)
	}

	for i, label := range result.Labels {
		fmt.Printf("%2d. %-12s %.3f\n", i+1, label, result.Scores[i])
	}
}
