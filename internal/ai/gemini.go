// README: Gemini-backed zero-shot classifier (JSON response mode).
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.0-flash"

// GeminiClassifier implements Classifier using Google's Gemini models as a
// zero-shot ranker over arbitrary candidate labels.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClassifier initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiClassifier(ctx context.Context, apiKey string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiModel)

	// Force JSON response for structured parsing; low temperature because
	// ranking should be as repeatable as the model allows.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.1)

	return &GeminiClassifier{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (c *GeminiClassifier) Close() {
	c.client.Close()
}

// Classify asks the model to score every candidate label against the text.
// The reply is validated so that stage logic always sees one score per
// candidate, sorted by descending relevance.
func (c *GeminiClassifier) Classify(ctx context.Context, text string, labels []string) (Result, error) {
	if len(labels) == 0 {
		return Result{}, fmt.Errorf("classify: empty candidate label set")
	}

	prompt := buildClassifyPrompt(text, labels)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Result{}, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	cleanJSON := cleanJSONString(responseText.String())

	var raw struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(cleanJSON), &raw); err != nil {
		return Result{}, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}

	// Missing candidates score zero instead of failing the turn; extra keys
	// the model invented are ignored.
	result := Result{
		Labels: append([]string(nil), labels...),
		Scores: make([]float64, len(labels)),
	}
	for i, label := range labels {
		result.Scores[i] = raw.Scores[label]
	}
	sortByScore(&result)
	return result, nil
}

// sortByScore orders labels and scores together, highest score first.
func sortByScore(r *Result) {
	type pair struct {
		label string
		score float64
	}
	pairs := make([]pair, len(r.Labels))
	for i := range r.Labels {
		pairs[i] = pair{r.Labels[i], r.Scores[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	for i, p := range pairs {
		r.Labels[i], r.Scores[i] = p.label, p.score
	}
}

func buildClassifyPrompt(text string, labels []string) string {
	var b strings.Builder
	b.WriteString("You are a zero-shot text classifier for a Spanish-language retail chatbot.\n")
	b.WriteString("Score how well the user message matches EACH candidate label with a value between 0 and 1.\n")
	b.WriteString("Candidate labels:\n")
	for _, l := range labels {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	b.WriteString("\nOutput JSON Schema:\n")
	b.WriteString(`{"scores": {"<label>": <float between 0 and 1>, ...}}`)
	b.WriteString("\nInclude every candidate label exactly as written, no extra keys.\n")
	fmt.Fprintf(&b, "\nUser Message: %s\n", text)
	return b.String()
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
