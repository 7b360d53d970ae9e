// README: Maps-link resolution for pharmacy names via Google Places.
package pharmacy

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// LinkResolver turns a pharmacy name into a shareable Google Maps link.
type LinkResolver struct {
	client *maps.Client
}

func NewLinkResolver(apiKey string) (*LinkResolver, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &LinkResolver{client: client}, nil
}

// Resolve looks the name up in Places and builds a place_id link. Returns
// an empty string when Places has no match, which the importer records as-is.
func (r *LinkResolver) Resolve(ctx context.Context, name string) (string, error) {
	resp, err := r.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:  name + " farmacia Puerto Rico",
		Region: "PR",
	})
	if err != nil {
		return "", fmt.Errorf("places api error: %w", err)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return fmt.Sprintf("https://www.google.com/maps/place/?q=place_id:%s", resp.Results[0].PlaceID), nil
}
