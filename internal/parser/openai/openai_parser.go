package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/parser"
)

const (
	apiURL       = "https://api.openai.com/v1/chat/completions"
	providerName = "openai"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (parser.Provider, error) {
		if cfg.BaseURL != "" {
			return NewParserWithEndpoint(cfg, cfg.BaseURL), nil
		}
		return NewParser(cfg), nil
	})
}

// Parser implements field extraction and completion using the OpenAI Chat Completions API.
type Parser struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewParser creates an OpenAI-backed provider from a provider config.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser(cfg, apiURL)
}

// NewParserWithEndpoint creates a provider pointing at a custom API endpoint.
func NewParserWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	return newParser(cfg, endpoint)
}

func newParser(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Parser{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  parser.NewLimiter(cfg.RequestsPerMinute),
	}
}

// ExtractFields asks the model for the FieldSet as a JSON object.
func (p *Parser) ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error) {
	content, err := p.chat(ctx, parser.ExtractionSystemPrompt, parser.BuildFieldPrompt(text), true)
	if err != nil {
		return nil, err
	}
	return parser.DecodeFields(providerName, content)
}

// Complete returns a plain-text completion.
func (p *Parser) Complete(ctx context.Context, system, prompt string) (string, error) {
	return p.chat(ctx, system, prompt, false)
}

func (p *Parser) chat(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	if err := parser.Wait(ctx, providerName, p.limiter); err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"model":                 p.model,
		"max_completion_tokens": 2048,
		"messages": []map[string]interface{}{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
	}
	if jsonMode {
		reqBody["response_format"] = map[string]interface{}{"type": "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.NewExtractionError(providerName, "marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", domain.NewExtractionError(providerName, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.NewExtractionError(providerName, "calling API", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewExtractionError(providerName, "reading response", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 300))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", domain.NewExtractionError(providerName, "rate limited",
				parser.NewRateLimitError(providerName, baseErr, retryAfter))
		}
		return "", domain.NewExtractionError(providerName, "API error", baseErr)
	}

	return parseResponse(respBody)
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.NewExtractionError(providerName, "unmarshaling response", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewExtractionError(providerName, "empty response: no choices", nil)
	}
	if resp.Choices[0].FinishReason == "length" {
		return "", domain.NewExtractionError(providerName, "output truncated (finish_reason: length)", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
