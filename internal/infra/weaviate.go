// README: Weaviate cloud client initialisation (vector index for the product catalog).
package infra

import (
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
)

// WeaviateConfig carries the connection parameters for the hosted index.
// OpenAIKey is forwarded so the cluster-side text2vec module can embed queries.
type WeaviateConfig struct {
	Host      string
	Scheme    string
	APIKey    string
	OpenAIKey string
}

// NewWeaviate builds a client handle for the product index. The handle is
// constructed once at bootstrap and injected into the adapters; there is no
// process-global client.
func NewWeaviate(cfg WeaviateConfig) (*weaviate.Client, error) {
	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Host, "https://"), "http://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: cfg.Scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	if cfg.OpenAIKey != "" {
		wcfg.Headers = map[string]string{"X-OpenAI-Api-Key": cfg.OpenAIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}
	return client, nil
}
