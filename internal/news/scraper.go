package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"stock-signal-advisor/internal/api"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/types"
)

// Scraper pulls headlines off the Yahoo Finance quote news page. It is the
// keyless fallback source and deliberately shallow: titles and links only,
// no article bodies.
type Scraper struct {
	timeout time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{timeout: timeout}
}

func (s *Scraper) Headlines(ctx context.Context, ticker, companyName string, limit int) ([]types.NewsHeadline, error) {
	c := colly.NewCollector(
		colly.AllowedDomains("finance.yahoo.com"),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range api.BrowserHeaders() {
			r.Headers.Set(k, v)
		}
	})

	var headlines []types.NewsHeadline

	c.OnHTML("div#nimbus-app section", func(e *colly.HTMLElement) {
		e.DOM.Find("li section").Each(func(_ int, item *goquery.Selection) {
			if len(headlines) >= limit {
				return
			}
			title := strings.TrimSpace(item.Find("h3").First().Text())
			if title == "" {
				return
			}
			link, _ := item.Find("a").First().Attr("href")
			if strings.HasPrefix(link, "/") {
				link = "https://finance.yahoo.com" + link
			}
			headlines = append(headlines, types.NewsHeadline{
				Type:   "scraped",
				Title:  title,
				Source: "Yahoo Finance",
				URL:    link,
			})
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "News scrape failed", err, "ticker", ticker, "url", r.Request.URL.String())
	})

	pageURL := fmt.Sprintf("https://finance.yahoo.com/quote/%s/news", strings.ToUpper(ticker))
	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("scrape news for %s: %w", ticker, err)
	}
	c.Wait()

	logger.Debug(ctx, "News scrape completed", "ticker", ticker, "headlines", len(headlines))
	return headlines, nil
}
