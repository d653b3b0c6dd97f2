package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signal-advisor/internal/cache"
	"stock-signal-advisor/internal/interfaces"
	"stock-signal-advisor/internal/llm"
	"stock-signal-advisor/internal/store"
	"stock-signal-advisor/internal/types"
)

type stubHandle struct {
	ticker   string
	primeErr error
	name     string
	price    *types.PriceData
	priceErr error
	candles  []types.Candle
	histErr  error
	funds    *types.FundamentalAnalysis
	fundsErr error
}

func (h *stubHandle) Ticker() string                  { return h.ticker }
func (h *stubHandle) Prime(context.Context) error     { return h.primeErr }
func (h *stubHandle) CompanyName(context.Context) (string, error) {
	return h.name, h.primeErr
}
func (h *stubHandle) Price(context.Context) (*types.PriceData, error) {
	return h.price, h.priceErr
}
func (h *stubHandle) Fundamentals(context.Context) (*types.FundamentalAnalysis, error) {
	return h.funds, h.fundsErr
}
func (h *stubHandle) History(context.Context) ([]types.Candle, error) {
	return h.candles, h.histErr
}

type stubMarket struct{ handle *stubHandle }

func (m *stubMarket) Lookup(ticker string) interfaces.StockHandle {
	m.handle.ticker = ticker
	return m.handle
}

type stubNews struct {
	headlines []types.NewsHeadline
	err       error
}

func (n *stubNews) Headlines(context.Context, string, string, int) ([]types.NewsHeadline, error) {
	return n.headlines, n.err
}

type stubSentiment struct {
	result types.SentimentAnalysis
	tagged []types.NewsHeadline
	err    error
}

func (s *stubSentiment) Analyze(_ context.Context, headlines []types.NewsHeadline) (types.SentimentAnalysis, []types.NewsHeadline, error) {
	if s.err != nil {
		return types.SentimentAnalysis{}, nil, s.err
	}
	tagged := s.tagged
	if tagged == nil {
		tagged = headlines
	}
	return s.result, tagged, nil
}

type stubAgent struct {
	result types.AgentResult
	err    error
	calls  int
}

func (a *stubAgent) Generate(context.Context, *types.Evidence) (types.AgentResult, error) {
	a.calls++
	return a.result, a.err
}

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.News.MaxHeadlines = 5
	return cfg
}

func buyAgent() *stubAgent {
	return &stubAgent{result: types.AgentResult{
		Signal:      types.SignalBuy,
		Confidence:  0.8,
		Explanation: "strong setup",
	}}
}

func newTestOrchestrator(t *testing.T, market *stubMarket, newsFeed *stubNews, sentiment *stubSentiment, signalAgent *stubAgent) (*Orchestrator, *cache.ResultCache) {
	t.Helper()
	resultCache := cache.New(time.Minute, 16)
	t.Cleanup(resultCache.Stop)
	o := NewOrchestrator(testConfig(), market, newsFeed, sentiment, signalAgent, resultCache, llm.NewNoop())
	return o, resultCache
}

func pricedHandle() *stubHandle {
	return &stubHandle{
		name:  "Apple Inc.",
		price: &types.PriceData{Current: types.Float(190.5), Currency: "USD"},
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	handle := pricedHandle()
	handle.candles = uptrendCandles(250)
	handle.funds = &types.FundamentalAnalysis{PERatio: types.Float(10)}

	headlines := []types.NewsHeadline{{Type: "news_api", Title: "Apple beats expectations"}}
	sentiment := &stubSentiment{
		result: types.SentimentAnalysis{
			Overall:       types.SentimentPositive,
			Score:         types.Float(0.8),
			PositiveCount: 1,
		},
	}
	o, resultCache := newTestOrchestrator(t,
		&stubMarket{handle: handle},
		&stubNews{headlines: headlines},
		sentiment,
		buyAgent(),
	)

	resp, err := o.Analyze(context.Background(), types.AnalyzeRequest{
		Ticker:              "aapl",
		IncludeNews:         true,
		IncludeTechnicals:   true,
		IncludeFundamentals: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", resp.Ticker)
	assert.Equal(t, "Apple Inc.", resp.CompanyName)
	assert.Equal(t, types.SignalBuy, resp.Signal)
	assert.Equal(t, "strong setup", resp.Explanation)
	require.NotNil(t, resp.Analysis.Technical)
	require.NotNil(t, resp.Analysis.Fundamentals)
	require.NotNil(t, resp.Analysis.Fundamentals.FundamentalScore)
	require.NotNil(t, resp.Analysis.Sentiment)
	assert.Len(t, resp.Sources, 1)
	assert.False(t, resp.Metadata.Cached)

	// The agent's own confidence is replaced by the pillar fusion.
	want := Confidence(resp.Analysis.Technical, resp.Analysis.Fundamentals, resp.Analysis.Sentiment)
	assert.InDelta(t, want, resp.Confidence, 1e-9)

	cached, ok := resultCache.Get("AAPL")
	require.True(t, ok)
	assert.True(t, cached.Metadata.Cached)
}

func TestAnalyzeCacheHit(t *testing.T) {
	agent := buyAgent()
	o, _ := newTestOrchestrator(t,
		&stubMarket{handle: pricedHandle()},
		&stubNews{}, &stubSentiment{}, agent,
	)

	_, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "AAPL"})
	require.NoError(t, err)

	resp, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "aapl"})
	require.NoError(t, err)
	assert.True(t, resp.Metadata.Cached)
	assert.Equal(t, 1, agent.calls)
}

func TestAnalyzeUnknownTicker(t *testing.T) {
	handle := &stubHandle{primeErr: fmt.Errorf("%w: NOPE", interfaces.ErrNotFound)}
	o, resultCache := newTestOrchestrator(t,
		&stubMarket{handle: handle}, &stubNews{}, &stubSentiment{}, buyAgent(),
	)

	_, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "NOPE"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	assert.Equal(t, 0, resultCache.Len())
}

func TestAnalyzeMissingPriceIsNotFound(t *testing.T) {
	handle := &stubHandle{priceErr: fmt.Errorf("%w: GONE", interfaces.ErrNotFound)}
	o, _ := newTestOrchestrator(t,
		&stubMarket{handle: handle}, &stubNews{}, &stubSentiment{}, buyAgent(),
	)

	_, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "GONE"})
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestAnalyzeDegradesOnPillarFailure(t *testing.T) {
	handle := pricedHandle()
	handle.histErr = errors.New("chart unavailable")
	handle.fundsErr = errors.New("summary unavailable")

	o, _ := newTestOrchestrator(t,
		&stubMarket{handle: handle},
		&stubNews{err: errors.New("news down")},
		&stubSentiment{},
		buyAgent(),
	)

	resp, err := o.Analyze(context.Background(), types.AnalyzeRequest{
		Ticker:              "AAPL",
		IncludeNews:         true,
		IncludeTechnicals:   true,
		IncludeFundamentals: true,
	})
	require.NoError(t, err)

	assert.Nil(t, resp.Analysis.Technical)
	assert.Nil(t, resp.Analysis.Fundamentals)
	assert.Nil(t, resp.Analysis.Sentiment)
	assert.Empty(t, resp.Sources)
	// No pillar scores at all falls back to neutral confidence.
	assert.InDelta(t, 0.5, resp.Confidence, 1e-9)
}

func TestAnalyzeSentimentFailureKeepsHeadlines(t *testing.T) {
	headlines := []types.NewsHeadline{{Title: "Mixed quarter"}}
	o, _ := newTestOrchestrator(t,
		&stubMarket{handle: pricedHandle()},
		&stubNews{headlines: headlines},
		&stubSentiment{err: errors.New("classifier down")},
		buyAgent(),
	)

	resp, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "AAPL", IncludeNews: true})
	require.NoError(t, err)
	assert.Nil(t, resp.Analysis.Sentiment)
	assert.Len(t, resp.Sources, 1)
}

func TestAnalyzeAgentRateLimitPropagates(t *testing.T) {
	o, resultCache := newTestOrchestrator(t,
		&stubMarket{handle: pricedHandle()},
		&stubNews{}, &stubSentiment{},
		&stubAgent{err: fmt.Errorf("provider: %w", llm.ErrRateLimited)},
	)

	_, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "AAPL"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrRateLimited))
	assert.Equal(t, 0, resultCache.Len())
}

func TestAnalyzeAgentFailureUsesFallback(t *testing.T) {
	o, _ := newTestOrchestrator(t,
		&stubMarket{handle: pricedHandle()},
		&stubNews{}, &stubSentiment{},
		&stubAgent{err: errors.New("model exploded")},
	)

	resp, err := o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, types.SignalHold, resp.Signal)
	assert.Contains(t, resp.Explanation, "temporarily unavailable")
}

// slowAgent holds each pipeline run long enough for concurrent callers to
// overlap, and counts runs race-safely.
type slowAgent struct {
	delay  time.Duration
	result types.AgentResult
	calls  atomic.Int32
}

func (a *slowAgent) Generate(context.Context, *types.Evidence) (types.AgentResult, error) {
	a.calls.Add(1)
	time.Sleep(a.delay)
	return a.result, nil
}

func TestAnalyzeCoalescesConcurrentRequests(t *testing.T) {
	agent := &slowAgent{
		delay: 50 * time.Millisecond,
		result: types.AgentResult{
			Signal:      types.SignalBuy,
			Confidence:  0.8,
			Explanation: "strong setup",
		},
	}

	cfg := testConfig()
	cfg.RateLimit.CoalesceRequests = true
	resultCache := cache.New(time.Minute, 16)
	t.Cleanup(resultCache.Stop)
	o := NewOrchestrator(cfg,
		&stubMarket{handle: pricedHandle()},
		&stubNews{}, &stubSentiment{},
		agent, resultCache, llm.NewNoop(),
	)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*types.AnalyzeResponse, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = o.Analyze(context.Background(), types.AnalyzeRequest{Ticker: "AAPL"})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), agent.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "AAPL", results[i].Ticker)
		assert.Equal(t, types.SignalBuy, results[i].Signal)
	}
}

func uptrendCandles(n int) []types.Candle {
	candles := make([]types.Candle, n)
	for i := range candles {
		candles[i] = types.Candle{Ts: int64(i), Close: 100 + 0.5*float64(i), Vol: 1e6}
	}
	return candles
}
