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

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI implements Provider using the OpenAI chat completions API.
type OpenAI struct {
	cfg      *store.Config
	client   *api.Client
	endpoint string
}

// NewOpenAI creates an OpenAI-backed provider. OPENAI_API_ENDPOINT overrides
// the endpoint for proxies.
func NewOpenAI(cfg *store.Config) *OpenAI {
	endpoint := "https://api.openai.com/v1/chat/completions"
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &OpenAI{cfg: cfg, client: api.NewClient(), endpoint: endpoint}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) Model() string {
	if p.cfg.LLM.Model != "" {
		return p.cfg.LLM.Model
	}
	return defaultOpenAIModel
}

// Complete sends the exchange and returns the assistant content.
func (p *OpenAI) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := logger.StartSpan(ctx, "openai-completion")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.LLM.MaxTokens
	}

	body := map[string]any{
		"model": p.Model(),
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": req.Temperature,
		"max_tokens":  maxTokens,
	}
	if req.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	resp, err := p.client.POST(ctx, p.endpoint, body, map[string]string{
		"Authorization": "Bearer " + apiKey,
	})
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, statusErr.Body)
		}
		return "", err
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices: %s", resp.String())
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
