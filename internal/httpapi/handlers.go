package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"stock-signal-advisor/internal/analysis"
	"stock-signal-advisor/internal/cache"
	"stock-signal-advisor/internal/fundamentals"
	"stock-signal-advisor/internal/interfaces"
	"stock-signal-advisor/internal/limiter"
	"stock-signal-advisor/internal/llm"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/news"
	"stock-signal-advisor/internal/store"
	"stock-signal-advisor/internal/ta"
	"stock-signal-advisor/internal/types"
)

const rateLimitDetail = "Rate limit exceeded. Please wait a minute before requesting a new analysis."

// Handlers carries the collaborators shared by all routes.
type Handlers struct {
	orchestrator *analysis.Orchestrator
	cache        *cache.ResultCache
	limiter      *limiter.ClientLimiter
	market       interfaces.MarketData
	newsFeed     interfaces.NewsSource
	provider     llm.Provider
	cfg          *store.Config
}

func NewHandlers(
	orchestrator *analysis.Orchestrator,
	resultCache *cache.ResultCache,
	clientLimiter *limiter.ClientLimiter,
	market interfaces.MarketData,
	newsFeed interfaces.NewsSource,
	provider llm.Provider,
	cfg *store.Config,
) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		cache:        resultCache,
		limiter:      clientLimiter,
		market:       market,
		newsFeed:     newsFeed,
		provider:     provider,
		cfg:          cfg,
	}
}

// analyzeRequestBody decodes with optional include flags so an absent flag
// means "include", matching the documented defaults.
type analyzeRequestBody struct {
	Ticker              string `json:"ticker"`
	IncludeNews         *bool  `json:"include_news"`
	IncludeTechnicals   *bool  `json:"include_technicals"`
	IncludeFundamentals *bool  `json:"include_fundamentals"`
}

func boolOrTrue(v *bool) bool {
	return v == nil || *v
}

// Analyze runs the full pipeline. Cached results bypass the client rate
// limit; uncached ones consume a slot that is refunded when the ticker turns
// out not to exist.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(body.Ticker))
	if ticker == "" || len(ticker) > 10 {
		writeError(w, http.StatusBadRequest, "ticker must be 1-10 characters")
		return
	}

	if resp, ok := h.cache.Get(ticker); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	client := clientIP(r)
	if !h.limiter.Allow(client) {
		writeError(w, http.StatusTooManyRequests, rateLimitDetail)
		return
	}

	req := types.AnalyzeRequest{
		Ticker:              ticker,
		IncludeNews:         boolOrTrue(body.IncludeNews),
		IncludeTechnicals:   boolOrTrue(body.IncludeTechnicals),
		IncludeFundamentals: boolOrTrue(body.IncludeFundamentals),
	}

	resp, err := h.orchestrator.Analyze(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			// A typo'd ticker never reached the LLM, give the slot back.
			h.limiter.Refund(client)
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, llm.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "LLM provider rate limit reached. Please try again shortly.")
		default:
			logger.ErrorWithErr(r.Context(), "Analysis failed", err, "ticker", ticker)
			writeError(w, http.StatusBadGateway, "Upstream API error: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type providerStatus struct {
	LLM string `json:"llm"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Providers providerStatus `json:"providers"`
	Timestamp time.Time      `json:"timestamp"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Providers: providerStatus{LLM: h.provider.Name()},
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) ToolStockPrice(w http.ResponseWriter, r *http.Request) {
	handle := h.market.Lookup(pathTicker(r))
	price, err := handle.Price(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (h *Handlers) ToolCompanyName(w http.ResponseWriter, r *http.Request) {
	ticker := pathTicker(r)
	handle := h.market.Lookup(ticker)
	name, err := handle.CompanyName(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ticker":       ticker,
		"company_name": name,
	})
}

func (h *Handlers) ToolTechnicals(w http.ResponseWriter, r *http.Request) {
	handle := h.market.Lookup(pathTicker(r))
	candles, err := handle.History(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ta.Analyze(candles))
}

func (h *Handlers) ToolFundamentals(w http.ResponseWriter, r *http.Request) {
	handle := h.market.Lookup(pathTicker(r))
	metrics, err := handle.Fundamentals(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	fundamentals.Calculate(metrics)
	writeJSON(w, http.StatusOK, metrics)
}

func (h *Handlers) ToolNews(w http.ResponseWriter, r *http.Request) {
	ticker := pathTicker(r)
	headlines, err := h.newsFeed.Headlines(r.Context(), ticker, "", h.cfg.News.MaxHeadlines)
	if err != nil {
		if errors.Is(err, news.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeUpstreamError(w, r, err)
		return
	}
	if headlines == nil {
		headlines = []types.NewsHeadline{}
	}
	writeJSON(w, http.StatusOK, headlines)
}

func pathTicker(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(mux.Vars(r)["ticker"]))
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, interfaces.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	logger.ErrorWithErr(r.Context(), "Tool route failed", err, "path", r.URL.Path)
	writeError(w, http.StatusBadGateway, "Upstream API error: "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	// Encoding failures at this point can only be half-written responses;
	// nothing useful left to send the client.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
