package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"cinebot/models"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// PosterBaseURL prefixes the poster_path values returned by the API.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// Client handles TMDb v3 API interactions for search and drill-down data.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string

	// Collapses identical concurrent detail/season lookups into one request.
	group singleflight.Group
}

// NewClient creates a new TMDb API client.
func NewClient(apiKey, language string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		language:   language,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

type searchResponse struct {
	Results []models.MediaItem `json:"results"`
}

// SearchMulti runs a multi-type search with the raw user query and returns
// only movie and series results, in the provider's relevance order.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]models.MediaItem, error) {
	var resp searchResponse
	if err := c.get(ctx, "/search/multi", url.Values{"query": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("search multi: %w", err)
	}

	results := make([]models.MediaItem, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.MediaType.Supported() {
			results = append(results, item)
		}
	}
	return results, nil
}

// Details fetches the full record for one item, using the media type to pick
// the movie or tv endpoint shape.
func (c *Client) Details(ctx context.Context, mediaType models.MediaType, id string) (*models.MediaDetail, error) {
	key := fmt.Sprintf("detail:%s:%s", mediaType, id)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		var detail models.MediaDetail
		if err := c.get(ctx, fmt.Sprintf("/%s/%s", mediaType, id), nil, &detail); err != nil {
			return nil, fmt.Errorf("fetch %s details: %w", mediaType, err)
		}
		return &detail, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*models.MediaDetail), nil
}

type seasonResponse struct {
	Episodes []models.Episode `json:"episodes"`
}

// Season returns the episode list for one season of a series.
func (c *Client) Season(ctx context.Context, id string, season int) ([]models.Episode, error) {
	key := fmt.Sprintf("season:%s:%d", id, season)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		var resp seasonResponse
		if err := c.get(ctx, fmt.Sprintf("/tv/%s/season/%d", id, season), nil, &resp); err != nil {
			return nil, fmt.Errorf("fetch season %d: %w", season, err)
		}
		return resp.Episodes, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]models.Episode), nil
}

type videosResponse struct {
	Results []models.Video `json:"results"`
}

// Videos returns the provider's video list for one item, in provider order.
func (c *Client) Videos(ctx context.Context, mediaType models.MediaType, id string) ([]models.Video, error) {
	var resp videosResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/videos", mediaType, id), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch videos: %w", err)
	}
	return resp.Results, nil
}

type recommendationsResponse struct {
	Results []models.MediaItem `json:"results"`
}

// Recommendations returns related items for one movie or series. The
// provider omits media_type on kind-specific endpoints, so it is backfilled
// from the request.
func (c *Client) Recommendations(ctx context.Context, mediaType models.MediaType, id string) ([]models.MediaItem, error) {
	var resp recommendationsResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/recommendations", mediaType, id), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch recommendations: %w", err)
	}
	for i := range resp.Results {
		if resp.Results[i].MediaType == "" {
			resp.Results[i].MediaType = mediaType
		}
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
