// Package tenor implements a small client for the Tenor v2 search API.
package tenor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/mofucat/chatrank/internal/setup/config"
	"go.uber.org/zap"
)

// ErrNoResults indicates a search returned no GIFs.
var ErrNoResults = errors.New("no results for query")

const defaultBaseURL = "https://tenor.googleapis.com/v2"

// GIF is one search result.
type GIF struct {
	ID    string
	Title string
	URL   string
}

// Client talks to the Tenor API.
type Client struct {
	baseURL string
	apiKey  string
	client  string
	limit   int
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Tenor client from configuration.
func NewClient(cfg *config.Tenor, logger *zap.Logger) *Client {
	limit := cfg.ResultLimit
	if limit <= 0 {
		limit = 20
	}

	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  cfg.APIKey,
		client:  cfg.ClientKey,
		limit:   limit,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("tenor"),
	}
}

type searchResponse struct {
	Results []struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		MediaFormats struct {
			GIF struct {
				URL string `json:"url"`
			} `json:"gif"`
		} `json:"media_formats"`
	} `json:"results"`
}

// Search queries Tenor for GIFs matching the query. Transient HTTP failures
// are retried with exponential backoff.
func (c *Client) Search(ctx context.Context, query string) ([]GIF, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("media_filter", "gif")

	if c.client != "" {
		params.Set("client_key", c.client)
	}

	endpoint := c.baseURL + "/search?" + params.Encode()

	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("tenor server error: %s", resp.Status)
		}

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("tenor request failed: %s", resp.Status))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxInterval(2*time.Second),
	), 3), ctx)

	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("failed to search tenor: %w", err)
	}

	var parsed searchResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tenor response: %w", err)
	}

	gifs := make([]GIF, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		if result.MediaFormats.GIF.URL == "" {
			continue
		}

		gifs = append(gifs, GIF{
			ID:    result.ID,
			Title: result.Title,
			URL:   result.MediaFormats.GIF.URL,
		})
	}

	if len(gifs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, query)
	}

	return gifs, nil
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}
