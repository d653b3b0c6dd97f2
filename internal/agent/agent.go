// Package agent produces the final BUY/HOLD/SELL recommendation. The pillar
// data is gathered upfront by the orchestrator and handed over as one evidence
// bundle, so a single completion call covers the whole analysis.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stock-signal-advisor/internal/llm"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/news"
	"stock-signal-advisor/internal/types"
)

const (
	defaultTemperature = 0.3
	maxTokens          = 1024
)

// FallbackExplanation is returned when signal generation fails for any reason
// other than provider throttling.
const FallbackExplanation = "Signal analysis temporarily unavailable. Technical and fundamental data are shown below."

// Generator runs the recommendation prompt against the configured provider.
type Generator struct {
	provider llm.Provider
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Fallback is the neutral result used when the model cannot be reached.
func Fallback() types.AgentResult {
	return types.AgentResult{
		Signal:      types.SignalHold,
		Confidence:  0.5,
		Explanation: FallbackExplanation,
	}
}

// Generate asks the model for a recommendation over the evidence bundle.
// Throttling errors propagate via llm.ErrRateLimited; any other provider
// failure is returned as-is for the caller to degrade on.
func (g *Generator) Generate(ctx context.Context, ev *types.Evidence) (types.AgentResult, error) {
	timer := logger.StartOperation(ctx, "agent_generate", "ticker", ev.Ticker)

	out, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		User:        buildPrompt(ev),
		Temperature: defaultTemperature,
		MaxTokens:   maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		timer.EndWithError(err)
		return types.AgentResult{}, fmt.Errorf("signal generation for %s: %w", ev.Ticker, err)
	}

	result := parseOutput(ctx, out)
	timer.End("signal", string(result.Signal), "confidence", result.Confidence)
	return result, nil
}

// buildPrompt renders the evidence bundle. Pillars that failed upstream are
// listed as unavailable so the model can flag insufficient data instead of
// hallucinating it.
func buildPrompt(ev *types.Evidence) string {
	var b strings.Builder

	name := ev.Ticker
	if ev.CompanyName != "" {
		name = fmt.Sprintf("%s (%s)", ev.CompanyName, ev.Ticker)
	}
	fmt.Fprintf(&b, "Analyze the stock %s and provide a BUY/HOLD/SELL recommendation with confidence score and explanation.\n", name)

	writeSection(&b, "Price Data", ev.Price)
	writeSection(&b, "Technical Indicators", ev.Analysis.Technical)
	writeSection(&b, "Fundamental Analysis", ev.Analysis.Fundamentals)
	writeSection(&b, "News Sentiment", ev.Analysis.Sentiment)

	b.WriteString("\n## Recent Headlines\n")
	b.WriteString(news.FormatHeadlines(ev.Headlines))
	b.WriteString("\n")

	return b.String()
}

func writeSection(b *strings.Builder, title string, v interface{}) {
	fmt.Fprintf(b, "\n## %s\n", title)
	if v == nil || isNilPointer(v) {
		b.WriteString("Not available.\n")
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b.WriteString("Not available.\n")
		return
	}
	b.Write(data)
	b.WriteString("\n")
}

func isNilPointer(v interface{}) bool {
	switch p := v.(type) {
	case *types.PriceData:
		return p == nil
	case *types.TechnicalAnalysis:
		return p == nil
	case *types.FundamentalAnalysis:
		return p == nil
	case *types.SentimentAnalysis:
		return p == nil
	}
	return false
}

// parseOutput extracts the JSON recommendation. Unparseable output degrades
// to HOLD at 0.5 with the raw text as explanation so the user still sees what
// the model said.
func parseOutput(ctx context.Context, out string) types.AgentResult {
	var parsed struct {
		Signal      string   `json:"signal"`
		Confidence  *float64 `json:"confidence"`
		Explanation string   `json:"explanation"`
	}

	raw := out
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Some models wrap the JSON in prose or code fences.
		if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
			raw = raw[start : end+1]
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			logger.Warn(ctx, "Agent output is not valid JSON", "error", err)
			return types.AgentResult{
				Signal:      types.SignalHold,
				Confidence:  0.5,
				Explanation: out,
			}
		}
	}

	confidence := 0.5
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
	}

	explanation := parsed.Explanation
	if explanation == "" {
		explanation = out
	}

	return types.AgentResult{
		Signal:      types.ParseSignal(strings.ToUpper(strings.TrimSpace(parsed.Signal))),
		Confidence:  confidence,
		Explanation: explanation,
	}
}
