package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stock-signal-advisor/internal/agent"
	"stock-signal-advisor/internal/cache"
	"stock-signal-advisor/internal/fundamentals"
	"stock-signal-advisor/internal/interfaces"
	"stock-signal-advisor/internal/llm"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/store"
	"stock-signal-advisor/internal/ta"
	"stock-signal-advisor/internal/types"
)

// Orchestrator runs the full analysis pipeline: cache check, shared handle
// priming, parallel pillar gathering, sentiment, signal generation, confidence
// fusion and cache store.
type Orchestrator struct {
	market    interfaces.MarketData
	newsFeed  interfaces.NewsSource
	sentiment interfaces.SentimentAnalyzer
	agent     interfaces.SignalAgent
	cache     *cache.ResultCache
	provider  llm.Provider

	// coalesce collapses concurrent uncached requests for the same ticker
	// into a single pipeline run.
	coalesce bool
	mu       sync.Mutex
	inflight map[string]*inflightRun

	maxHeadlines int
}

type inflightRun struct {
	done chan struct{}
	resp *types.AnalyzeResponse
	err  error
}

func NewOrchestrator(
	cfg *store.Config,
	market interfaces.MarketData,
	newsFeed interfaces.NewsSource,
	sentimentAnalyzer interfaces.SentimentAnalyzer,
	signalAgent interfaces.SignalAgent,
	resultCache *cache.ResultCache,
	provider llm.Provider,
) *Orchestrator {
	return &Orchestrator{
		market:       market,
		newsFeed:     newsFeed,
		sentiment:    sentimentAnalyzer,
		agent:        signalAgent,
		cache:        resultCache,
		provider:     provider,
		coalesce:     cfg.RateLimit.CoalesceRequests,
		inflight:     make(map[string]*inflightRun),
		maxHeadlines: cfg.News.MaxHeadlines,
	}
}

// Analyze produces the full response for one request. It returns
// interfaces.ErrNotFound for unknown tickers and llm.ErrRateLimited when the
// provider throttles; everything else degrades inside the pipeline.
func (o *Orchestrator) Analyze(ctx context.Context, req types.AnalyzeRequest) (*types.AnalyzeResponse, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))

	if resp, ok := o.cache.Get(ticker); ok {
		logger.Debug(ctx, "Cache hit", "ticker", ticker)
		return resp, nil
	}

	if !o.coalesce {
		return o.runPipeline(ctx, req, ticker)
	}

	o.mu.Lock()
	if run, ok := o.inflight[ticker]; ok {
		o.mu.Unlock()
		select {
		case <-run.done:
			if run.err != nil {
				return nil, run.err
			}
			return run.resp.Clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	run := &inflightRun{done: make(chan struct{})}
	o.inflight[ticker] = run
	o.mu.Unlock()

	run.resp, run.err = o.runPipeline(ctx, req, ticker)
	o.mu.Lock()
	delete(o.inflight, ticker)
	o.mu.Unlock()
	close(run.done)

	return run.resp, run.err
}

func (o *Orchestrator) runPipeline(ctx context.Context, req types.AnalyzeRequest, ticker string) (*types.AnalyzeResponse, error) {
	timer := logger.StartOperation(ctx, "analyze_pipeline", "ticker", ticker)
	ctx = timer.GetContext()

	handle := o.market.Lookup(ticker)

	// Prime the shared handle before fanning out so concurrent tasks read the
	// memoized metadata instead of racing on the first upstream fetch.
	if err := handle.Prime(ctx); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			timer.EndWithError(err)
			return nil, notFound(ticker)
		}
		// Transient metadata failure; individual tasks will surface their
		// own errors.
		logger.Warn(ctx, "Handle priming failed", "ticker", ticker, "error", err)
	}

	companyName, err := handle.CompanyName(ctx)
	if err != nil {
		companyName = ""
	}

	var (
		wg        sync.WaitGroup
		priceData *types.PriceData
		technical *types.TechnicalAnalysis
		funds     *types.FundamentalAnalysis
		headlines []types.NewsHeadline
	)

	gather := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				if errors.Is(err, interfaces.ErrNotFound) || errors.Is(err, context.Canceled) {
					logger.Warn(ctx, "Pillar unavailable", "task", name, "ticker", ticker, "error", err)
				} else {
					logger.ErrorWithErr(ctx, "Pillar fetch failed", err, "task", name, "ticker", ticker)
				}
			}
		}()
	}

	gather("price", func() error {
		var err error
		priceData, err = handle.Price(ctx)
		return err
	})

	if req.IncludeTechnicals {
		gather("technicals", func() error {
			candles, err := handle.History(ctx)
			if err != nil {
				return err
			}
			technical = ta.Analyze(candles)
			return nil
		})
	}

	if req.IncludeFundamentals {
		gather("fundamentals", func() error {
			metrics, err := handle.Fundamentals(ctx)
			if err != nil {
				return err
			}
			fundamentals.Calculate(metrics)
			funds = metrics
			return nil
		})
	}

	if req.IncludeNews {
		gather("news", func() error {
			var err error
			headlines, err = o.newsFeed.Headlines(ctx, ticker, companyName, o.maxHeadlines)
			return err
		})
	}

	wg.Wait()

	// Price is the one mandatory pillar: without it the ticker is junk.
	if priceData == nil {
		err := notFound(ticker)
		timer.EndWithError(err)
		return nil, err
	}

	var sentimentResult *types.SentimentAnalysis
	if len(headlines) > 0 {
		s, tagged, err := o.sentiment.Analyze(ctx, headlines)
		if err != nil {
			logger.ErrorWithErr(ctx, "Sentiment analysis failed", err, "ticker", ticker)
		} else {
			sentimentResult = &s
			headlines = tagged
		}
	}

	evidence := &types.Evidence{
		Ticker:      ticker,
		CompanyName: companyName,
		Price:       priceData,
		Analysis: types.AnalysisResult{
			Technical:    technical,
			Fundamentals: funds,
			Sentiment:    sentimentResult,
		},
		Headlines: headlines,
	}

	agentResult, err := o.agent.Generate(ctx, evidence)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			timer.EndWithError(err)
			return nil, err
		}
		logger.ErrorWithErr(ctx, "Signal generation failed, using fallback", err, "ticker", ticker)
		agentResult = agent.Fallback()
	}

	confidence := Confidence(technical, funds, sentimentResult)
	logger.Signal(ctx, ticker, string(agentResult.Signal), confidence)

	if headlines == nil {
		headlines = []types.NewsHeadline{}
	}
	response := &types.AnalyzeResponse{
		Ticker:      ticker,
		CompanyName: companyName,
		Signal:      agentResult.Signal,
		Confidence:  confidence,
		Explanation: agentResult.Explanation,
		Analysis:    evidence.Analysis,
		PriceData:   priceData,
		Sources:     headlines,
		Metadata: types.AnalysisMetadata{
			GeneratedAt: time.Now().UTC(),
			LLMProvider: o.provider.Name(),
			ModelUsed:   o.provider.Model(),
		},
	}

	o.cache.Set(ticker, response)
	timer.End("signal", string(agentResult.Signal), "confidence", confidence)
	return response, nil
}

func notFound(ticker string) error {
	return fmt.Errorf("%w: ticker %q not found, verify the symbol and try again", interfaces.ErrNotFound, ticker)
}
