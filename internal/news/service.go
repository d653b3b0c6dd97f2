package news

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-signal-advisor/internal/interfaces"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/store"
	"stock-signal-advisor/internal/types"
)

// Service chains the API client and the scraper: the API is authoritative,
// the scraper only covers a missing key or an API outage.
type Service struct {
	primary  interfaces.NewsSource
	fallback interfaces.NewsSource
	max      int
}

func NewService(cfg *store.Config) *Service {
	s := &Service{
		primary: NewAPIClient(cfg),
		max:     cfg.News.MaxHeadlines,
	}
	if cfg.News.ScraperEnabled {
		s.fallback = NewScraper(cfg.NewsTimeout())
	}
	return s
}

func (s *Service) Headlines(ctx context.Context, ticker, companyName string, limit int) ([]types.NewsHeadline, error) {
	if limit <= 0 || limit > s.max {
		limit = s.max
	}

	headlines, err := s.primary.Headlines(ctx, ticker, companyName, limit)
	if err == nil {
		return headlines, nil
	}

	if s.fallback == nil {
		return nil, err
	}
	if errors.Is(err, ErrNotConfigured) {
		logger.Debug(ctx, "NewsAPI not configured, using scraper", "ticker", ticker)
	} else {
		logger.Warn(ctx, "NewsAPI failed, using scraper", "ticker", ticker, "error", err)
	}
	return s.fallback.Headlines(ctx, ticker, companyName, limit)
}

// FormatHeadlines renders headlines as a numbered block for LLM prompts.
func FormatHeadlines(headlines []types.NewsHeadline) string {
	if len(headlines) == 0 {
		return "No recent news found."
	}
	var b strings.Builder
	for i, h := range headlines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if h.Source != "" {
			fmt.Fprintf(&b, "%d. %s (%s)", i+1, h.Title, h.Source)
		} else {
			fmt.Fprintf(&b, "%d. %s", i+1, h.Title)
		}
	}
	return b.String()
}
