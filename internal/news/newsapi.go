// Package news fetches recent headlines for a ticker. The primary source is
// the NewsAPI.org REST API; when no API key is configured a best-effort Yahoo
// Finance scraper takes over so analyses still get some coverage.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"stock-signal-advisor/internal/api"
	"stock-signal-advisor/internal/store"
	"stock-signal-advisor/internal/types"
)

// ErrNotConfigured is returned when no NewsAPI key is available. Callers treat
// it as "try another source", not as a failure.
var ErrNotConfigured = errors.New("news provider not configured")

const (
	newsAPIBaseURL    = "https://newsapi.org"
	newsAPIEverything = "/v2/everything"
)

// APIClient queries NewsAPI.org.
type APIClient struct {
	http   *api.Client
	apiKey string
}

func NewAPIClient(cfg *store.Config) *APIClient {
	return &APIClient{
		http: api.NewClient(
			api.WithBaseURL(newsAPIBaseURL),
			api.WithTimeout(cfg.NewsTimeout()),
		),
		apiKey: os.Getenv("NEWS_API_KEY"),
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Headlines returns the most recent articles matching the ticker. The company
// name widens the query so tickers that double as common words still find
// relevant coverage.
func (c *APIClient) Headlines(ctx context.Context, ticker, companyName string, limit int) ([]types.NewsHeadline, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	query := fmt.Sprintf("%q", ticker)
	if companyName != "" {
		query = fmt.Sprintf("%q OR %q", ticker, companyName)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprintf("%d", limit))
	params.Set("apiKey", c.apiKey)

	resp, err := c.http.GET(ctx, newsAPIEverything+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("news for %s: %w", ticker, err)
	}

	var body newsAPIResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, fmt.Errorf("news for %s: %w", ticker, err)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("news for %s: status %q", ticker, body.Status)
	}

	headlines := make([]types.NewsHeadline, 0, len(body.Articles))
	for _, a := range body.Articles {
		title := strings.TrimSpace(a.Title)
		// NewsAPI tombstones deleted articles instead of omitting them.
		if title == "" || title == "[Removed]" {
			continue
		}
		h := types.NewsHeadline{
			Type:   "news_api",
			Title:  title,
			Source: a.Source.Name,
			URL:    a.URL,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			h.PublishedAt = &ts
		}
		headlines = append(headlines, h)
		if len(headlines) >= limit {
			break
		}
	}
	return headlines, nil
}
