package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"stock-signal-advisor/internal/api"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/store"
)

const defaultClaudeModel = "claude-3-5-haiku-20241022"

// Claude implements Provider using the Anthropic messages API.
type Claude struct {
	cfg      *store.Config
	client   *api.Client
	endpoint string
}

// NewClaude creates a Claude-backed provider. CLAUDE_API_ENDPOINT overrides
// the endpoint for proxy or gateway setups.
func NewClaude(cfg *store.Config) *Claude {
	endpoint := "https://api.anthropic.com/v1/messages"
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Claude{cfg: cfg, client: api.NewClient(), endpoint: endpoint}
}

func (p *Claude) Name() string { return "anthropic" }

func (p *Claude) Model() string {
	if p.cfg.LLM.Model != "" {
		return p.cfg.LLM.Model
	}
	return defaultClaudeModel
}

// Complete sends the exchange and returns the assistant content. JSON mode is
// prompt-enforced; the messages API has no response_format switch.
func (p *Claude) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := logger.StartSpan(ctx, "claude-completion")
	defer span.End()

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", errors.New("ANTHROPIC_API_KEY missing")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.LLM.MaxTokens
	}

	body := map[string]any{
		"model":      p.Model(),
		"max_tokens": maxTokens,
		"system":     req.System,
		"messages": []map[string]string{
			{"role": "user", "content": req.User},
		},
		"temperature": req.Temperature,
	}

	resp, err := p.client.POST(ctx, p.endpoint, body, map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, statusErr.Body)
		}
		return "", err
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", fmt.Errorf("claude response has no content: %s", resp.String())
	}

	return strings.TrimSpace(r.Content[0].Text), nil
}
